// ════════════════════════════════════════════════════════════════════════════════════════════════
// Symbol-Partitioned Tick Store
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Per-Symbol Ring Partitioning
//
// Description:
//   The companion variant to the field-partitioned table: one partition per
//   instrument, each holding three struct-valued MPMC rings for the three feed
//   stream classes (L1 quotes, trades, reference data). A whole tick record
//   occupies a single ring slot, so one CAS publishes the entire record;
//   this path has record atomicity by construction and none of the
//   cross-field alignment hazard the table layer documents.
//
// Architecture:
//   - symidx maps symbol → token → partition slot (lock-free lookups)
//   - Partitions are published atomically at registration; the hot path
//     never takes a lock
//   - Per-stream capacities are independent: quotes run deep rings, trades
//     medium, reference shallow
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package partition

import (
	"sync"
	"sync/atomic"

	"tickdb/constants"
	"tickdb/mpmc"
	"tickdb/symidx"
	"tickdb/tick"
)

// ============================================================================
// STREAM CLASSIFICATION
// ============================================================================

// Stream selects which of a partition's rings a record travels through.
type Stream uint8

const (
	// L1Quote carries best bid/ask updates. Highest volume.
	L1Quote Stream = iota

	// Trade carries executed trade prints.
	Trade

	// Reference carries instrument reference-data updates. Rare.
	Reference

	streamCount
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config sizes the partition universe and the three per-symbol rings.
// All ring capacities must be powers of two ≥ 2.
type Config struct {
	NumPartitions int    // Maximum registrable symbols
	L1Capacity    uint64 // Per-symbol L1 quote ring capacity
	TradeCapacity uint64 // Per-symbol trade ring capacity
	RefCapacity   uint64 // Per-symbol reference ring capacity
}

// DefaultConfig returns the production sizing from the constants package.
func DefaultConfig() Config {
	return Config{
		NumPartitions: constants.MaxSymbols,
		L1Capacity:    constants.L1RingCapacity,
		TradeCapacity: constants.TradeRingCapacity,
		RefCapacity:   constants.RefRingCapacity,
	}
}

// validate fails fast on construction so misconfiguration never surfaces
// mid-registration. Capacity errors reuse the ring taxonomy.
func (c *Config) validate() error {
	for _, n := range [...]uint64{c.L1Capacity, c.TradeCapacity, c.RefCapacity} {
		if n < 2 {
			return mpmc.ErrCapacityTooSmall
		}
		if n&(n-1) != 0 {
			return mpmc.ErrCapacityNotPow2
		}
	}
	return nil
}

// ============================================================================
// PER-SYMBOL PARTITION
// ============================================================================

// Buffers is one instrument's partition: three record rings, one per
// stream class. Records are copied by value into slots; a published slot
// is a complete record.
type Buffers struct {
	token uint64
	l1    *mpmc.Ring[tick.Record]
	trade *mpmc.Ring[tick.Record]
	ref   *mpmc.Ring[tick.Record]
}

// ring selects the stream's ring. Unknown streams resolve to nil and the
// callers below report failure.
//
//go:nosplit
//go:inline
func (b *Buffers) ring(s Stream) *mpmc.Ring[tick.Record] {
	switch s {
	case L1Quote:
		return b.l1
	case Trade:
		return b.trade
	case Reference:
		return b.ref
	}
	return nil
}

// Ring exposes one stream's underlying ring for pinned-consumer wiring.
// The consumer fleet drains partitions through this handle; Read remains
// the one-shot polling alternative.
//
//go:nosplit
//go:inline
func (b *Buffers) Ring(s Stream) *mpmc.Ring[tick.Record] {
	return b.ring(s)
}

// Token returns the instrument token this partition serves.
//
//go:nosplit
//go:inline
func (b *Buffers) Token() uint64 {
	return b.token
}

// Write enqueues a record into the stream's ring. The record is copied by
// value; the caller's struct may be reused immediately. False means the
// ring is full (non-blocking policy).
//
//go:nosplit
//go:inline
//go:registerparams
func (b *Buffers) Write(rec *tick.Record, s Stream) bool {
	r := b.ring(s)
	if r == nil {
		return false
	}
	return r.TryEnqueue(*rec)
}

// Read dequeues the oldest record from the stream's ring.
//
//go:nosplit
//go:inline
//go:registerparams
func (b *Buffers) Read(s Stream) (tick.Record, bool) {
	r := b.ring(s)
	if r == nil {
		return tick.Record{}, false
	}
	return r.TryDequeue()
}

// Len returns the observed occupancy of the stream's ring.
func (b *Buffers) Len(s Stream) uint64 {
	r := b.ring(s)
	if r == nil {
		return 0
	}
	return r.Len()
}

// ============================================================================
// PARTITION MANAGER
// ============================================================================

// Manager owns the partition universe. Registration is cold-path and
// serialized; Write/Read resolve token → partition lock-free.
type Manager struct {
	idx        *symidx.Index
	partitions []atomic.Pointer[Buffers] // Slot-indexed, published at registration
	cfg        Config
	mu         sync.Mutex // Serializes partition creation
}

// NewManager builds an empty partition universe with validated ring sizing.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.NumPartitions < 1 {
		cfg.NumPartitions = 1
	}
	return &Manager{
		idx:        symidx.New(cfg.NumPartitions),
		partitions: make([]atomic.Pointer[Buffers], cfg.NumPartitions),
		cfg:        cfg,
	}, nil
}

// Register onboards a symbol: assigns its index slot and builds the three
// rings. Idempotent; re-registration returns the existing partition.
// Ring allocation happens here, once; the hot path never allocates.
func (m *Manager) Register(symbol string) (*Buffers, error) {
	token, slot, err := m.idx.Register(symbol)
	if err != nil {
		return nil, err
	}

	if b := m.partitions[slot].Load(); b != nil {
		return b, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.partitions[slot].Load(); b != nil {
		return b, nil // Raced with a concurrent registration of the same symbol
	}

	l1, err := mpmc.New[tick.Record](m.cfg.L1Capacity)
	if err != nil {
		return nil, err
	}
	trade, err := mpmc.New[tick.Record](m.cfg.TradeCapacity)
	if err != nil {
		return nil, err
	}
	ref, err := mpmc.New[tick.Record](m.cfg.RefCapacity)
	if err != nil {
		return nil, err
	}

	b := &Buffers{token: token, l1: l1, trade: trade, ref: ref}
	m.partitions[slot].Store(b)
	return b, nil
}

// Get resolves a token to its partition without registering.
//
//go:nosplit
//go:inline
//go:registerparams
func (m *Manager) Get(token uint64) (*Buffers, bool) {
	slot, ok := m.idx.Lookup(token)
	if !ok {
		return nil, false
	}
	b := m.partitions[slot].Load()
	return b, b != nil
}

// Write routes a record to its instrument's stream ring. Unregistered
// tokens report false; the feed layer treats that as an invalid-instrument
// drop, not an error.
//
//go:nosplit
//go:inline
//go:registerparams
func (m *Manager) Write(token uint64, rec *tick.Record, s Stream) bool {
	b, ok := m.Get(token)
	if !ok {
		return false
	}
	return b.Write(rec, s)
}

// Read dequeues the oldest record from one instrument's stream ring.
//
//go:nosplit
//go:inline
//go:registerparams
func (m *Manager) Read(token uint64, s Stream) (tick.Record, bool) {
	b, ok := m.Get(token)
	if !ok {
		return tick.Record{}, false
	}
	return b.Read(s)
}

// Index exposes the symbol index for bootstrap enumeration.
func (m *Manager) Index() *symidx.Index {
	return m.idx
}
