// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - Fallback Implementation
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Cross-Platform Compatibility Layer
//
// Description:
//   Fallback for architectures without specialized spin-wait instructions and for
//   builds with assembly or CGO disabled. Provides API compatibility; the ring
//   simply spins at full speed without a pipeline hint.
//
// Compilation Targets:
//   - RISC-V, MIPS, PowerPC, s390x, and other architectures
//   - Builds tagged noasm or nocgo
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build (!amd64 && !arm64) || noasm || nocgo

package mpmc

// cpuRelax provides a no-op implementation for architectural compatibility.
// The empty body is eliminated entirely when inlined.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func cpuRelax() {
	// No-op implementation
}
