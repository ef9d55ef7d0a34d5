// ============================================================================
// SYMBOL-PARTITIONED STORE PERFORMANCE BENCHMARK SUITE
// ============================================================================

package partition

import (
	"testing"

	"tickdb/tick"
)

// BenchmarkWriteReadQuote measures the token-routed record round trip
func BenchmarkWriteReadQuote(b *testing.B) {
	m, _ := NewManager(Config{
		NumPartitions: 4,
		L1Capacity:    1024,
		TradeCapacity: 64,
		RefCapacity:   64,
	})
	buf, _ := m.Register("BTC-USD")
	token := buf.Token()

	rec := tick.Record{
		Token:    token,
		BidPrice: 69000.5, AskPrice: 69001.0,
		BidSize: 3, AskSize: 2,
		Timestamp: 1, SeqNum: 1,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Write(token, &rec, L1Quote)
		m.Read(token, L1Quote)
	}
}
