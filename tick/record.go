// ════════════════════════════════════════════════════════════════════════════════════════════════
// Tick Record - Fixed-Shape Market Data Payload
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Record Layout & Binary Codec
//
// Description:
//   The fixed 64-byte market-data record moved through partition rings and
//   archived at the edge. Layout fills exactly one cache line's worth of
//   bytes; a struct-valued ring slot adds its 8-byte sequence counter, so
//   slots are 72 bytes wide. The binary codec is explicit little-endian;
//   all encoding happens on the producer side, the rings store bytes or structs
//   verbatim and never serialize.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package tick

import (
	"math"

	"tickdb/utils"
)

// Size is the fixed wire size of an encoded record.
const Size = 64

// Flag bits carried in Record.Flags.
const (
	FlagSnapshot  = 1 << 0 // Record originated from a snapshot, not the stream
	FlagImplied   = 1 << 1 // Quote implied from related instruments
	FlagAuction   = 1 << 2 // Auction-phase data
	FlagIrregular = 1 << 3 // Trade flagged irregular by the venue
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CORE DATA STRUCTURE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Record is one market-data update for one instrument. 64 bytes (one cache
// line in size), copied by value through struct rings. A whole record publishes
// with a single ring slot, so this path never tears across fields.
//
//go:align 64
type Record struct {
	Token     uint64  // 8B  - Instrument token from the symbol index
	BidPrice  float64 // 8B  - Best bid
	AskPrice  float64 // 8B  - Best ask
	LastPrice float64 // 8B  - Last trade price
	Timestamp uint64  // 8B  - Venue timestamp, nanoseconds since epoch
	SeqNum    uint64  // 8B  - Venue sequence number (gap detection)
	BidSize   uint32  // 4B  - Size at best bid
	AskSize   uint32  // 4B  - Size at best ask
	LastSize  uint32  // 4B  - Last trade size
	Flags     uint8   // 1B  - Flag bits above
	_         [3]byte // 3B  - Tail padding to 64 bytes
}

// Valid reports whether the record passes producer-side sanity checks:
// a registered token and an uncrossed book (where both sides are present).
//
//go:nosplit
//go:inline
func (r *Record) Valid() bool {
	if r.Token == 0 {
		return false
	}
	if r.BidPrice != 0 && r.AskPrice != 0 && r.BidPrice > r.AskPrice {
		return false
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// BINARY CODEC
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// MarshalSlot encodes the record into a fixed 64-byte buffer, little-endian
// throughout. Float fields travel as IEEE-754 bit patterns.
//
//go:nosplit
//go:registerparams
func (r *Record) MarshalSlot(dst *[Size]byte) {
	utils.StoreLE64(dst[0:], r.Token)
	utils.StoreLE64(dst[8:], math.Float64bits(r.BidPrice))
	utils.StoreLE64(dst[16:], math.Float64bits(r.AskPrice))
	utils.StoreLE64(dst[24:], math.Float64bits(r.LastPrice))
	utils.StoreLE64(dst[32:], r.Timestamp)
	utils.StoreLE64(dst[40:], r.SeqNum)
	utils.StoreLE32(dst[48:], r.BidSize)
	utils.StoreLE32(dst[52:], r.AskSize)
	utils.StoreLE32(dst[56:], r.LastSize)
	dst[60] = r.Flags
	dst[61], dst[62], dst[63] = 0, 0, 0
}

// UnmarshalSlot decodes a record from a fixed 64-byte buffer.
//
//go:nosplit
//go:registerparams
func (r *Record) UnmarshalSlot(src *[Size]byte) {
	r.Token = utils.LoadLE64(src[0:])
	r.BidPrice = math.Float64frombits(utils.LoadLE64(src[8:]))
	r.AskPrice = math.Float64frombits(utils.LoadLE64(src[16:]))
	r.LastPrice = math.Float64frombits(utils.LoadLE64(src[24:]))
	r.Timestamp = utils.LoadLE64(src[32:])
	r.SeqNum = utils.LoadLE64(src[40:])
	r.BidSize = utils.LoadLE32(src[48:])
	r.AskSize = utils.LoadLE32(src[52:])
	r.LastSize = utils.LoadLE32(src[56:])
	r.Flags = src[60]
}
