// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ CORE-PINNED CONSUMER SYSTEM
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Dedicated Core Ring Consumption
//
// Description:
//   CPU core-bound consumer implementation for lock-free rings. Provides adaptive
//   polling strategies with hot/cold detection and automatic CPU relaxation to balance
//   latency and power consumption in multi-core consumer fleets.
//
// Adaptive Behavior:
//   - Hot mode: Continuous polling during active tick flow
//   - Cool mode: CPU relaxation after idle threshold
//   - Automatic transition based on tick arrival patterns
//   - Special variant with global cooldown management for the primary core
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package mpmc

import (
	"runtime"
	"time"

	"tickdb/control"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONFIGURATION CONSTANTS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

const (
	// hotWindow defines the duration to maintain aggressive polling after activity.
	// During this window, the consumer assumes more ticks are likely to arrive.
	hotWindow = 5 * time.Second

	// spinBudget sets the number of failed polls before CPU relaxation.
	// Balances responsiveness with power efficiency.
	spinBudget = 224
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// STANDARD PINNED CONSUMER
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// PinnedConsumer launches a goroutine bound to a specific CPU core that drains
// the ring into the handler. The consumer adaptively adjusts its polling
// strategy based on tick traffic patterns.
//
// PARAMETERS:
//   - core: Target CPU core index (0-based)
//   - ring: MPMC ring to consume from
//   - stop: Pointer to shutdown flag (non-zero triggers shutdown)
//   - hot: Pointer to feed activity flag (1 = active feed)
//   - handler: Callback invoked with each dequeued value
//   - done: Channel closed when the consumer terminates
//
// THREADING MODEL:
//
//	The goroutine locks to an OS thread and sets CPU affinity to ensure
//	consistent NUMA locality and predictable cache behavior. The ring is
//	MPMC, so any number of PinnedConsumer instances may share one ring.
//
// ADAPTIVE POLLING:
//   - Continuous polling while ticks arrive or the feed is active
//   - Graduated relaxation after idle periods to save power
//   - Immediate response to shutdown signals
//
//go:norace
//go:nosplit
//go:registerparams
func PinnedConsumer[T any](
	core int,
	ring *Ring[T],
	stop *uint32,
	hot *uint32,
	handler func(T),
	done chan<- struct{},
) {
	go func() {
		// Lock goroutine to OS thread for CPU affinity
		runtime.LockOSThread()
		setAffinity(core)

		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		// Polling state management
		var miss int          // Consecutive failed polls
		lastHit := time.Now() // Last successful dequeue

		for {
			// Priority 1: Check for shutdown signal
			if *stop != 0 {
				return
			}

			// Priority 2: Attempt tick consumption
			if v, ok := ring.TryDequeue(); ok {
				handler(v)
				miss = 0
				lastHit = time.Now()
				continue
			}

			// Priority 3: Stay hot while the feed is active or recently was
			if *hot == 1 || time.Since(lastHit) <= hotWindow {
				continue
			}

			// Priority 4: Apply CPU relaxation after the spin budget
			if miss++; miss >= spinBudget {
				miss = 0
				cpuRelax()
			}
		}
	}()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PRIMARY CORE CONSUMER WITH COOLDOWN
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// PinnedConsumerWithCooldown is the variant for the primary consumer core.
// In addition to standard consumption it polls the global cooldown so the
// system-wide hot flag clears when the feed goes idle.
//
//go:norace
//go:nosplit
//go:registerparams
func PinnedConsumerWithCooldown[T any](
	core int,
	ring *Ring[T],
	stop *uint32,
	hot *uint32,
	handler func(T),
	done chan<- struct{},
) {
	go func() {
		runtime.LockOSThread()
		setAffinity(core)

		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		var miss int
		lastHit := time.Now()

		for {
			if *stop != 0 {
				return
			}

			if v, ok := ring.TryDequeue(); ok {
				handler(v)
				miss = 0
				lastHit = time.Now()
				continue
			}

			// Primary core special: manage system-wide hot/cold transitions
			control.PollCooldown()

			if *hot == 1 || time.Since(lastHit) <= hotWindow {
				continue
			}

			if miss++; miss >= spinBudget {
				miss = 0
				cpuRelax()
			}
		}
	}()
}
