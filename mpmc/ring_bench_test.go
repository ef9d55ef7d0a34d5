// ============================================================================
// MPMC RING BUFFER PERFORMANCE BENCHMARK SUITE
// ============================================================================
//
// Measures steady-state operation latency for uncontended and contended
// scenarios. Payloads are preallocated; the measured region performs no
// heap allocation.

package mpmc

import (
	"sync/atomic"
	"testing"
)

// BenchmarkEnqueueDequeuePair measures an uncontended enqueue/dequeue cycle
func BenchmarkEnqueueDequeuePair(b *testing.B) {
	r, _ := New[uint64](1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.TryEnqueue(uint64(i))
		r.TryDequeue()
	}
}

// BenchmarkEnqueueDequeueBytes measures the byte-vector instantiation used
// by table field rings
func BenchmarkEnqueueDequeueBytes(b *testing.B) {
	r, _ := New[[]byte](1024)
	buf := make([]byte, 64)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.TryEnqueue(buf)
		r.TryDequeue()
	}
}

// BenchmarkContendedMPMC measures throughput with all procs producing and
// consuming the same ring
func BenchmarkContendedMPMC(b *testing.B) {
	r, _ := New[uint64](4096)
	var seq atomic.Uint64

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v := seq.Add(1)
			for !r.TryEnqueue(v) {
				r.TryDequeue()
			}
			r.TryDequeue()
		}
	})
}
