// ════════════════════════════════════════════════════════════════════════════════════════════════
// Field-Partitioned Table - Configuration
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Table Construction Parameters
//
// Description:
//   Declarative table configuration: an ordered list of field specifications,
//   each naming one payload ring and its capacity. Field order in the slice is
//   the table's canonical iteration order for writes and reads, so it is
//   deterministic and stable by construction.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package table

import "errors"

// ============================================================================
// ERROR DEFINITIONS
// ============================================================================

var (
	// ErrNoFields is returned when a table is constructed without any fields.
	ErrNoFields = errors.New("table: config declares no fields")

	// ErrDuplicateField is returned when two fields share a name. Each field
	// owns exactly one ring; duplicates would alias it.
	ErrDuplicateField = errors.New("table: duplicate field name")

	// ErrEmptyFieldName is returned for unnamed fields.
	ErrEmptyFieldName = errors.New("table: empty field name")
)

// ============================================================================
// CONFIGURATION TYPES
// ============================================================================

// FieldConfig describes one field of a table: its name, an advisory payload
// size, and the capacity of the ring dedicated to it.
type FieldConfig struct {
	// Name identifies the field within the table. Must be unique and non-empty.
	Name string

	// PayloadSizeHint is advisory: producers may clip or pad toward it, but
	// the ring stores whatever byte vector arrives. Zero means no hint.
	PayloadSizeHint int

	// RingCapacity sizes this field's ring. Must be a power of two ≥ 2;
	// fields may differ (a 4-byte id field can run a deeper ring than a
	// 256-byte depth snapshot field).
	RingCapacity uint64
}

// TableConfig is the ordered field set for one table. Slice order is the
// canonical field order used by WriteRecord and ReadOneRecord.
type TableConfig struct {
	Fields []FieldConfig
}

// validate checks structural config invariants. Ring capacity validation is
// delegated to the ring constructor so the error taxonomy has one owner.
func (c *TableConfig) validate() error {
	if len(c.Fields) == 0 {
		return ErrNoFields
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for i := range c.Fields {
		name := c.Fields[i].Name
		if name == "" {
			return ErrEmptyFieldName
		}
		if _, dup := seen[name]; dup {
			return ErrDuplicateField
		}
		seen[name] = struct{}{}
	}
	return nil
}
