// ============================================================================
// TICK FEED DECODER - MAXIMUM PERFORMANCE JSON PROCESSING
// ============================================================================
//
// Decodes venue frames into tick records and routes them into the store.
// Two paths with different cost models:
//
//   HOT PATH  - per-tick stream frames with single-character keys and
//               integer nano-prices. Scanned byte-by-byte with the utils
//               micro-scanners; no reflection, no intermediate structs,
//               no allocation while scanning. When a mirror table is
//               attached, route allocates the seq and tick payloads and
//               the record map for each mirrored record.
//   COLD PATH - bulk snapshot frames sent once after subscribe. Decoded
//               with sonnet into typed structs; allocation is acceptable
//               because snapshots arrive once per reconnect.
//
// SAFETY MODEL:
//   - Assumes a trusted venue; malformed fields drop the frame, not the
//     process
//   - Payload views reference the reader's buffer and are never retained
//
// Wire format (hot path), all prices in 1e-9 units:
//   {"e":"q","s":"BTC-USD","b":69000500000000,"B":3,"a":69001000000000,
//    "A":2,"p":0,"P":0,"t":1722945600123456789,"n":42}
//   e: q=quote t=trade r=reference
//
// ============================================================================

package feed

import (
	"sync/atomic"

	"github.com/sugawarayuuta/sonnet"

	"tickdb/partition"
	"tickdb/table"
	"tickdb/tick"
	"tickdb/utils"
)

// PriceScale converts wire nano-prices to float prices.
const PriceScale = 1e9

// ============================================================================
// DECODER STATE
// ============================================================================

// Decoder owns the symbol universe for one feed session and routes decoded
// records into the partition manager, optionally mirroring them into a
// field-partitioned table for the archive drain.
type Decoder struct {
	tokens map[string]uint64  // Symbol → token; frozen after bootstrap
	mgr    *partition.Manager // Record-atomic primary store
	tbl    *table.Table       // Optional byte-payload mirror (may be nil)

	recSeq  atomic.Uint64 // Record sequence stamps for the table mirror
	dropped atomic.Uint64 // Frames dropped: unknown symbol, full ring, garbage
}

// NewDecoder binds a decoder to its stores. Pass a nil table to disable
// the mirror path.
func NewDecoder(mgr *partition.Manager, tbl *table.Table) *Decoder {
	return &Decoder{
		tokens: make(map[string]uint64),
		mgr:    mgr,
		tbl:    tbl,
	}
}

// Track registers a symbol with the partition manager and caches its token
// for hot-path lookup. Bootstrap only; the token map is read-only once
// frames start flowing.
func (d *Decoder) Track(symbol string) error {
	b, err := d.mgr.Register(symbol)
	if err != nil {
		return err
	}
	d.tokens[symbol] = b.Token()
	return nil
}

// Dropped returns the count of frames discarded by the decoder.
func (d *Decoder) Dropped() uint64 {
	return d.dropped.Load()
}

// ============================================================================
// FRAME DISPATCH
// ============================================================================

// HandleFrame routes one payload to the hot or cold decode path.
// Subscription acks and heartbeats fall through both checks and are
// ignored without cost.
//
//go:nosplit
//go:registerparams
func (d *Decoder) HandleFrame(p []byte) {
	// Hot frames open with {"e": which is the cheapest possible discriminator
	if len(p) >= 6 && p[0] == '{' && p[1] == '"' && p[2] == 'e' && p[3] == '"' && p[4] == ':' {
		d.handleTick(p)
		return
	}
	const snapPrefix = `{"type":"snapshot"`
	if len(p) >= len(snapPrefix) && utils.B2s(p[:len(snapPrefix)]) == snapPrefix {
		d.handleSnapshot(p)
	}
}

// ============================================================================
// HOT PATH - STREAM TICK SCANNING
// ============================================================================

// handleTick scans one compact tick frame into a record and routes it.
// Field detection walks the frame once, left to right; keys are single
// characters so a byte switch replaces tag hashing.
//
//go:nosplit
//go:registerparams
func (d *Decoder) handleTick(p []byte) {
	var (
		stream  partition.Stream
		haveEvt bool
		sym     []byte
		bidRaw  uint64
		askRaw  uint64
		lastRaw uint64
		rec     tick.Record
	)

	i := 0
	for i < len(p)-3 {
		if p[i] != '"' {
			i++
			continue
		}
		// Key: single character between quotes, then ':'
		key := p[i+1]
		if p[i+2] != '"' || p[i+3] != ':' {
			i++
			continue
		}
		i += 4

		switch key {
		case 'e':
			v := utils.SliceASCII(p, i)
			if len(v) != 1 {
				d.dropped.Add(1)
				return
			}
			switch v[0] {
			case 'q':
				stream = partition.L1Quote
			case 't':
				stream = partition.Trade
			case 'r':
				stream = partition.Reference
			default:
				d.dropped.Add(1)
				return
			}
			haveEvt = true
			i += len(v) + 2

		case 's':
			sym = utils.SliceASCII(p, i)
			if sym == nil {
				d.dropped.Add(1)
				return
			}
			i += len(sym) + 2

		case 'b':
			v := utils.SliceNumber(p, i)
			bidRaw = utils.ParseDecU64(v)
			i += len(v)
		case 'B':
			v := utils.SliceNumber(p, i)
			rec.BidSize = uint32(utils.ParseDecU64(v))
			i += len(v)
		case 'a':
			v := utils.SliceNumber(p, i)
			askRaw = utils.ParseDecU64(v)
			i += len(v)
		case 'A':
			v := utils.SliceNumber(p, i)
			rec.AskSize = uint32(utils.ParseDecU64(v))
			i += len(v)
		case 'p':
			v := utils.SliceNumber(p, i)
			lastRaw = utils.ParseDecU64(v)
			i += len(v)
		case 'P':
			v := utils.SliceNumber(p, i)
			rec.LastSize = uint32(utils.ParseDecU64(v))
			i += len(v)
		case 't':
			v := utils.SliceNumber(p, i)
			rec.Timestamp = utils.ParseDecU64(v)
			i += len(v)
		case 'n':
			v := utils.SliceNumber(p, i)
			rec.SeqNum = utils.ParseDecU64(v)
			i += len(v)
		}
	}

	if !haveEvt || sym == nil {
		d.dropped.Add(1)
		return
	}

	// Token lookup on the transient symbol view; B2s avoids the copy
	token, known := d.tokens[utils.B2s(sym)]
	if !known {
		d.dropped.Add(1)
		return
	}

	rec.Token = token
	rec.BidPrice = float64(bidRaw) / PriceScale
	rec.AskPrice = float64(askRaw) / PriceScale
	rec.LastPrice = float64(lastRaw) / PriceScale

	if !rec.Valid() {
		d.dropped.Add(1)
		return
	}

	d.route(&rec, stream)
}

// ============================================================================
// COLD PATH - SNAPSHOT DECODING (SONNET)
// ============================================================================

// snapshotTick is one instrument state inside a venue snapshot.
type snapshotTick struct {
	Symbol    string  `json:"s"`
	Bid       float64 `json:"b"`
	BidSize   uint32  `json:"B"`
	Ask       float64 `json:"a"`
	AskSize   uint32  `json:"A"`
	Last      float64 `json:"p"`
	LastSize  uint32  `json:"P"`
	Timestamp uint64  `json:"t"`
	SeqNum    uint64  `json:"n"`
}

// snapshotMsg is the bulk state message sent once after subscribe.
type snapshotMsg struct {
	Type  string         `json:"type"`
	Ticks []snapshotTick `json:"ticks"`
}

// handleSnapshot decodes a bulk snapshot and seeds every tracked
// instrument's reference stream. Runs once per reconnect.
func (d *Decoder) handleSnapshot(p []byte) {
	var msg snapshotMsg
	if err := sonnet.Unmarshal(p, &msg); err != nil {
		d.dropped.Add(1)
		return
	}

	for i := range msg.Ticks {
		st := &msg.Ticks[i]
		token, known := d.tokens[st.Symbol]
		if !known {
			d.dropped.Add(1)
			continue
		}

		rec := tick.Record{
			Token:     token,
			BidPrice:  st.Bid,
			AskPrice:  st.Ask,
			LastPrice: st.Last,
			BidSize:   st.BidSize,
			AskSize:   st.AskSize,
			LastSize:  st.LastSize,
			Timestamp: st.Timestamp,
			SeqNum:    st.SeqNum,
			Flags:     tick.FlagSnapshot,
		}
		if !rec.Valid() {
			d.dropped.Add(1)
			continue
		}
		d.route(&rec, partition.Reference)
	}
}

// ============================================================================
// RECORD ROUTING
// ============================================================================

// route delivers a decoded record to the partition store and, when the
// mirror table is attached, to the per-field byte rings. The mirror always
// carries a decoder-stamped seq field so downstream consumers can apply
// the cross-field alignment discipline the table documents.
func (d *Decoder) route(rec *tick.Record, stream partition.Stream) {
	if !d.mgr.Write(rec.Token, rec, stream) {
		d.dropped.Add(1) // Full ring or unregistered: non-blocking drop
		return
	}

	if d.tbl != nil {
		seq := d.recSeq.Add(1)
		seqBuf := make([]byte, 8)
		utils.StoreLE64(seqBuf, seq)

		slot := make([]byte, tick.Size)
		rec.MarshalSlot((*[tick.Size]byte)(slot))

		d.tbl.WriteRecord(map[string][]byte{
			"seq":  seqBuf,
			"tick": slot,
		})
	}
}

// ============================================================================
// MIRROR TABLE CONFIGURATION
// ============================================================================

// MirrorTableConfig returns the canonical field layout for the archive
// mirror: the record sequence stamp first, then the encoded record.
func MirrorTableConfig(capacity uint64) table.TableConfig {
	return table.TableConfig{Fields: []table.FieldConfig{
		{Name: "seq", PayloadSizeHint: 8, RingCapacity: capacity},
		{Name: "tick", PayloadSizeHint: tick.Size, RingCapacity: capacity},
	}}
}
