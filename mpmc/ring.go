// ============================================================================
// LOCK-FREE MPMC RING BUFFER SYSTEM
// ============================================================================
//
// High-performance multi-producer/multi-consumer ring queue for microsecond
// scale tick distribution between ingest and consumer threads.
//
// Core capabilities:
//   - Lock-free MPMC operation via the Vyukov sequence protocol
//   - Generic payload type with monomorphized hot paths
//   - Power-of-2 sizing with bit masking for O(1) operations
//   - Cache line isolation for producer/consumer cursor separation
//
// Architecture overview:
//   - Per-slot sequence counters acting as turnstile and publication marker
//   - Ticket acquisition through CAS on the producer/consumer cursors
//   - Bounded local spin on contended tickets, no blocking anywhere
//   - Zero allocation during steady-state operation
//
// Sequence protocol (slot at index i, lap k):
//   - Free for lap k:       seq = i + k·capacity
//   - Published for lap k:  seq = i + k·capacity + 1
//   - Freed for lap k+1:    seq = i + (k+1)·capacity
//   Sequence values only ever advance; the thread that wins the cursor CAS
//   is the only writer of the slot until it releases via the sequence store.
//
// Safety model:
//   - Non-blocking contract: TryEnqueue/TryDequeue never sleep or yield
//   - Full/empty are reported as boolean outcomes, never as errors
//   - Record-level atomicity across multiple rings is NOT provided here;
//     see the table package documentation for the cross-ring hazard
//
// Use cases:
//   - Per-field payload rings underneath field-partitioned tables
//   - Struct-valued tick rings inside symbol partitions
//   - Generic inter-thread handoff under multi-producer load

package mpmc

import (
	"errors"
	"sync/atomic"
)

// ============================================================================
// ERROR DEFINITIONS
// ============================================================================

var (
	// ErrCapacityNotPow2 is returned when the requested ring capacity is
	// not a power of two. Bit-mask indexing requires power-of-2 sizing.
	ErrCapacityNotPow2 = errors.New("mpmc: capacity must be a power of two")

	// ErrCapacityTooSmall is returned for capacities below the minimum of 2.
	ErrCapacityTooSmall = errors.New("mpmc: capacity must be at least 2")
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// slot is a single ring cell: a sequence counter plus the payload value.
//
// Sequence semantics:
//   - Producer claims the slot when seq == ticket, publishes with seq = ticket+1
//   - Consumer claims when seq == ticket+1, frees with seq = ticket+capacity
//   - Any other relation means a peer is mid-operation or the ring is
//     full/empty from the observer's perspective
//
// The value field is written only by the single thread holding the slot's
// ticket; the sequence protocol is the sole guard, no lock is ever taken.
//
//go:align 64
type slot[T any] struct {
	seq atomic.Uint64 // Lifecycle turnstile and publication marker
	val T             // Payload; owned transiently by the ticket holder
}

// Ring implements a bounded lock-free MPMC queue with isolation padding.
//
// Memory layout:
//   - Leading pad keeps the immutable header off hot cache lines
//   - producer and consumer cursors each occupy their own cache line,
//     eliminating false sharing between enqueue and dequeue traffic
//   - mask/capacity/buf are read-only after construction and shared freely
//
// Cursor arithmetic uses free-running 64-bit tickets. At realistic tick
// rates (10^9/s) wraparound takes ~584 years, so lap math never overflows.
//
//go:align 64
type Ring[T any] struct {
	_        [64]byte // Isolation for the read-mostly header below
	mask     uint64   // capacity - 1 for bit-mask indexing
	capacity uint64   // Fixed ring capacity (power of two)
	buf      []slot[T]

	_        [64]byte      // Cache line isolation for producer cursor
	producer atomic.Uint64 // Next enqueue ticket

	_        [56]byte      // Cache line isolation for consumer cursor
	consumer atomic.Uint64 // Next dequeue ticket

	_ [56]byte // Tail padding against trailing neighbors
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New creates a ring with the specified capacity.
//
// Capacity must be a power of two and at least 2. Invalid capacities are
// rejected with a configuration error rather than rounded; sizing is a
// deliberate caller decision in this system.
//
// Initialization:
//  1. Validate power-of-2 and minimum-size requirements
//  2. Allocate the backing slot array in one block
//  3. Seed slot sequences with their indices (free-for-lap-0 state)
//
// This is the only allocation the ring ever performs; both operations below
// are allocation-free for the lifetime of the ring.
func New[T any](capacity uint64) (*Ring[T], error) {
	if capacity < 2 {
		return nil, ErrCapacityTooSmall
	}
	if capacity&(capacity-1) != 0 {
		return nil, ErrCapacityNotPow2
	}

	r := &Ring[T]{
		mask:     capacity - 1,
		capacity: capacity,
		buf:      make([]slot[T], capacity),
	}

	// Seed sequence numbers: slot i is free for ticket i on lap 0
	for i := range r.buf {
		r.buf[i].seq.Store(uint64(i))
	}

	return r, nil
}

// ============================================================================
// PRODUCER OPERATIONS
// ============================================================================

// TryEnqueue attempts to enqueue a payload without blocking.
//
// Algorithm:
//  1. Read the producer cursor as the candidate ticket
//  2. Classify the target slot via diff = seq - ticket (signed)
//  3. diff == 0: slot free for this ticket. CAS the cursor forward;
//     on success store the payload, then publish with seq = ticket+1
//  4. diff < 0:  an earlier producer has not yet published; the ring is
//     full from this producer's perspective; report full immediately
//  5. diff > 0:  another producer took this ticket; relax the CPU and
//     restart from step 1
//
// Memory ordering:
//
//	The payload store strictly precedes the sequence publication store, and
//	consumers load the sequence before touching the payload. Go's atomic
//	package provides the acquire/release semantics the protocol needs; no
//	additional fences are required.
//
// The only internal wait is the bounded local spin on a contended ticket;
// the operation never sleeps, never yields, never blocks.
//
// Returns:
//
//	true:  payload enqueued and visible to consumers
//	false: ring full (non-blocking policy; caller may retry, drop, or back off)
//
//go:norace
//go:nosplit
//go:inline
//go:registerparams
func (r *Ring[T]) TryEnqueue(v T) bool {
	for {
		ticket := r.producer.Load()
		s := &r.buf[ticket&r.mask]
		diff := int64(s.seq.Load()) - int64(ticket)

		switch {
		case diff == 0:
			// Slot is free for this ticket; race peers for the cursor
			if r.producer.CompareAndSwap(ticket, ticket+1) {
				s.val = v
				s.seq.Store(ticket + 1) // Publish: data now visible
				return true
			}
			// Lost the CAS to a peer producer; retry with a fresh ticket
			cpuRelax()

		case diff < 0:
			// Previous-lap consumer has not freed this slot: ring full
			return false

		default:
			// Ticket already claimed by a faster producer; spin briefly
			cpuRelax()
		}
	}
}

// ============================================================================
// CONSUMER OPERATIONS
// ============================================================================

// TryDequeue attempts to dequeue the oldest payload without blocking.
//
// Algorithm (symmetric to TryEnqueue):
//  1. Read the consumer cursor as the candidate ticket
//  2. Classify the slot via diff = seq - (ticket+1)
//  3. diff == 0: published value awaits this ticket. CAS the cursor
//     forward; on success move the value out, clear the slot, and free it
//     for the next lap with seq = ticket + capacity
//  4. diff < 0:  the producer for this ticket has not published; empty
//  5. diff > 0:  another consumer raced ahead; relax and restart
//
// The slot's value is explicitly cleared on success so the ring retains no
// payload memory after the handoff: ownership moves to the caller and the
// next-lap producer observes an empty cell.
//
// Returns:
//
//	(value, true):  payload moved out to the caller
//	(zero, false):  ring empty (non-blocking policy; caller polls)
//
//go:norace
//go:nosplit
//go:inline
//go:registerparams
func (r *Ring[T]) TryDequeue() (T, bool) {
	var zero T
	for {
		ticket := r.consumer.Load()
		s := &r.buf[ticket&r.mask]
		diff := int64(s.seq.Load()) - int64(ticket+1)

		switch {
		case diff == 0:
			// Published value for this ticket; race peers for the cursor
			if r.consumer.CompareAndSwap(ticket, ticket+1) {
				v := s.val
				s.val = zero                     // Release payload memory
				s.seq.Store(ticket + r.capacity) // Free for next lap
				return v, true
			}
			cpuRelax()

		case diff < 0:
			// Producer for this ticket has not published: ring empty
			return zero, false

		default:
			// Ticket already claimed by a faster consumer; spin briefly
			cpuRelax()
		}
	}
}

// ============================================================================
// OBSERVATIONAL QUERIES
// ============================================================================
//
// All queries below are snapshots: the state may change the instant after
// the read. They are intended for diagnostics and caller-side flow hints,
// never for synchronization.

// IsEmpty reports whether the ring appeared empty at the instant of the call.
//
//go:nosplit
//go:inline
func (r *Ring[T]) IsEmpty() bool {
	return r.producer.Load() == r.consumer.Load()
}

// IsFull reports whether the ring appeared full at the instant of the call.
//
//go:nosplit
//go:inline
func (r *Ring[T]) IsFull() bool {
	return r.producer.Load()-r.consumer.Load() >= r.capacity
}

// Len returns the observed occupancy. The subtraction is performed on
// free-running 64-bit cursors, so the result is exact for any reachable
// cursor distance.
//
//go:nosplit
//go:inline
func (r *Ring[T]) Len() uint64 {
	p := r.producer.Load()
	c := r.consumer.Load()
	if p < c {
		// Cursors are loaded independently; a consumer may advance between
		// the two loads. Clamp rather than report a huge unsigned value.
		return 0
	}
	return p - c
}

// Capacity returns the fixed ring capacity.
//
//go:nosplit
//go:inline
func (r *Ring[T]) Capacity() uint64 {
	return r.capacity
}
