// ════════════════════════════════════════════════════════════════════════════════════════════════
// Field-Partitioned Table - MPMC Record Façade
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Per-Field Ring Coordination
//
// Description:
//   User-facing record layer over one MPMC ring per field. A write enqueues each
//   field payload into its own ring; a read dequeues one payload per field in the
//   table's canonical order and reassembles the record. Rings advance
//   independently, which buys per-field capacity tuning at the cost of
//   record-level atomicity (see the alignment hazard below).
//
// ⚠️ CROSS-FIELD ALIGNMENT HAZARD:
//   With more than one concurrent producer, field enqueues from different
//   records can interleave: producer A lands its `symbol` before producer B,
//   but B lands `price` first. A consumer may then pair A's symbol with B's
//   price. The ring layer cannot detect this. Callers must either
//     (a) serialize writes through a single producer per table, or
//     (b) carry a per-record sequence number as one of the fields and
//         cross-check it across dequeued fields, discarding on mismatch.
//   The feed decoder in this repository stamps a `seq` field on every
//   mirrored record; the archive drain stores that stamp but does not
//   cross-check it against the other field. The partition package offers
//   the struct-valued alternative with true record atomicity.
//
// Partial-failure policy (deliberate, for the non-blocking contract):
//   - A write rejected on a full ring leaves earlier field payloads enqueued.
//   - A read aborted on an empty ring discards earlier dequeued payloads.
//   Both surface only as drift in RecordCount; see the method documentation.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package table

import (
	"sync/atomic"

	"tickdb/mpmc"
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// Table binds a name to one payload ring per configured field. The field
// mapping is built once at construction and never mutated afterward; rings
// are internally synchronized, so a Table is freely shareable across
// producer and consumer threads.
type Table struct {
	name   string
	fields []FieldConfig                 // Config snapshot, canonical order
	rings  map[string]*mpmc.Ring[[]byte] // Field name → dedicated ring

	// inFlight counts fully completed writes minus fully completed reads.
	// Rejected writes and aborted reads do NOT touch it, so under partial
	// failures it drifts from ring occupancy; it is a diagnostic, not a
	// flow-control input.
	inFlight atomic.Int64
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New builds a table from the given config: one ring per field, each with
// its own capacity, plus a snapshot of the config itself.
//
// Configuration errors (no fields, duplicate or empty names, invalid ring
// capacities) abort construction and are returned to the caller. Runtime
// full/empty conditions are never errors.
func New(name string, cfg TableConfig) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		name:   name,
		fields: make([]FieldConfig, len(cfg.Fields)),
		rings:  make(map[string]*mpmc.Ring[[]byte], len(cfg.Fields)),
	}
	copy(t.fields, cfg.Fields)

	for i := range t.fields {
		r, err := mpmc.New[[]byte](t.fields[i].RingCapacity)
		if err != nil {
			return nil, err
		}
		t.rings[t.fields[i].Name] = r
	}

	return t, nil
}

// Name returns the table identifier. Informational only.
func (t *Table) Name() string {
	return t.name
}

// Fields returns the config snapshot in canonical order. The returned slice
// is shared; callers must not mutate it.
func (t *Table) Fields() []FieldConfig {
	return t.fields
}

// ============================================================================
// WRITE PATH
// ============================================================================

// WriteRecord enqueues one record, field by field, in canonical order.
//
// Record keys that are not configured fields are skipped silently (they are
// simply not persisted). Configured fields absent from the record receive
// nothing this round.
//
// The first enqueue that reports full rejects the whole record: false is
// returned and fields already enqueued for this record REMAIN in their
// rings. Rolling them back would require locking the sibling rings, which
// the non-blocking contract forbids.
//
// Payloads are moved: the table retains the caller's slice headers without
// copying the bytes. The caller must not reuse a payload's backing array
// after a successful write.
//
//go:nosplit
//go:registerparams
func (t *Table) WriteRecord(rec map[string][]byte) bool {
	for i := range t.fields {
		payload, present := rec[t.fields[i].Name]
		if !present {
			continue
		}
		if !t.rings[t.fields[i].Name].TryEnqueue(payload) {
			return false // Rejected; earlier fields stay enqueued
		}
	}
	t.inFlight.Add(1)
	return true
}

// WriteField enqueues a single field payload, bypassing record assembly.
// Used by producers that stream one field class at a time. Unknown fields
// report false.
//
//go:nosplit
//go:inline
//go:registerparams
func (t *Table) WriteField(field string, payload []byte) bool {
	r, ok := t.rings[field]
	if !ok {
		return false
	}
	return r.TryEnqueue(payload)
}

// ============================================================================
// READ PATH
// ============================================================================

// ReadOneRecord dequeues one payload per field in canonical order and
// returns the assembled record.
//
// The first ring that reports empty aborts the read: nil/false is returned
// and payloads already dequeued from earlier fields are DISCARDED, not
// returned to their rings (re-enqueueing would reorder them behind
// concurrent traffic). Both partial-failure modes surface as RecordCount
// drift.
func (t *Table) ReadOneRecord() (map[string][]byte, bool) {
	out := make(map[string][]byte, len(t.fields))
	if !t.readInto(out) {
		return nil, false
	}
	return out, true
}

// ReadRecordInto is the allocation-free variant: it fills dst (cleared
// first) instead of allocating a fresh map. Consumers on pinned cores reuse
// one map for the lifetime of the drain loop.
//
//go:nosplit
//go:registerparams
func (t *Table) ReadRecordInto(dst map[string][]byte) bool {
	clear(dst)
	return t.readInto(dst)
}

// readInto performs the canonical-order dequeue pass shared by both read
// entry points. Decrements inFlight only when every field yielded a value.
func (t *Table) readInto(dst map[string][]byte) bool {
	for i := range t.fields {
		payload, ok := t.rings[t.fields[i].Name].TryDequeue()
		if !ok {
			return false // Aborted; earlier dequeues are lost
		}
		dst[t.fields[i].Name] = payload
	}
	t.inFlight.Add(-1)
	return true
}

// ============================================================================
// DIAGNOSTICS
// ============================================================================

// RecordCount returns the in-flight record estimate: completed writes minus
// completed reads. Exact under disciplined (no-partial-failure) use; an
// approximation once writes have been rejected or reads aborted midway.
// Divergence between RecordCount and per-ring occupancy is the observable
// signature of orphaned field payloads.
//
//go:nosplit
//go:inline
func (t *Table) RecordCount() int64 {
	return t.inFlight.Load()
}

// FieldLen returns the observed occupancy of one field's ring, or 0 for
// unknown fields. Observational only.
func (t *Table) FieldLen(field string) uint64 {
	r, ok := t.rings[field]
	if !ok {
		return 0
	}
	return r.Len()
}
