// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - AMD64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: x86-64 Spin-Wait Optimization
//
// Description:
//   Platform-specific implementation for x86-64 processors using the PAUSE instruction.
//   Improves power efficiency and performance in hyperthreaded environments during
//   the bounded ticket-contention spins inside ring operations.
//
// Hardware Benefits:
//   - Reduced power consumption during spin loops
//   - Better resource sharing on SMT/hyperthreaded cores
//   - Minimized memory ordering speculation
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build amd64 && !noasm && !nocgo

package mpmc

/*
#ifdef __x86_64__
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
#else
#error "This file requires x86-64 architecture"
#endif
*/
import "C"

// cpuRelax emits an x86-64 PAUSE instruction for efficient spin-wait loops.
// Called while a ring ticket is transiently held by a peer thread (a wait
// bounded by the number of concurrent operators), and by pinned consumers
// once their idle spin budget is spent.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func cpuRelax() {
	C.cpu_pause()
}
