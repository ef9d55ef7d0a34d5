// ════════════════════════════════════════════════════════════════════════════════════════════════
// Tick Store - System Constants
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Compile-Time Configuration
//
// Description:
//   Central configuration constants for ring sizing, feed connectivity, and frame
//   handling. All values are compile-time constants so the hot path carries no
//   configuration lookups.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package constants

const (
	// ═══════════════════════════════════════════════════════════════════════════════════════════
	// RING SIZING DEFAULTS
	// ═══════════════════════════════════════════════════════════════════════════════════════════

	// DefaultFieldRingCapacity sizes per-field table rings. Power of two.
	DefaultFieldRingCapacity = 4096

	// L1RingCapacity sizes per-symbol L1 quote rings. Quotes dominate feed
	// volume, so this is the largest of the three partition rings.
	L1RingCapacity = 65536

	// TradeRingCapacity sizes per-symbol trade rings.
	TradeRingCapacity = 32768

	// RefRingCapacity sizes per-symbol reference-data rings. Reference
	// updates are rare; a small ring suffices.
	RefRingCapacity = 8192

	// MaxSymbols bounds the symbol index and partition manager.
	MaxSymbols = 16384

	// ═══════════════════════════════════════════════════════════════════════════════════════════
	// FEED CONNECTIVITY
	// ═══════════════════════════════════════════════════════════════════════════════════════════

	// WsHost is the market-data feed hostname used for TLS SNI and the
	// HTTP Host header during the WebSocket upgrade.
	WsHost = "stream.exchange.example.com"

	// WsPath is the subscription endpoint path.
	WsPath = "/ws/v1/ticks"

	// WsDialAddr is the TCP dial target for the feed connection.
	WsDialAddr = WsHost + ":443"

	// MaxFrameSize bounds a single WebSocket frame and sizes socket buffers.
	// Snapshot frames carrying full symbol lists are the largest messages seen.
	MaxFrameSize = 1 << 20

	// ═══════════════════════════════════════════════════════════════════════════════════════════
	// ARCHIVE SINK
	// ═══════════════════════════════════════════════════════════════════════════════════════════

	// ArchiveBatchSize is the number of records drained per transaction
	// into the SQLite archive. Larger batches amortize fsync cost.
	ArchiveBatchSize = 512

	// ArchivePath is the default on-disk location of the tick archive.
	ArchivePath = "ticks.db"
)
