// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ SYMBOL INDEX - LOCK-FREE TOKEN LOOKUP
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Fixed-Capacity Symbol → Partition Mapping
//
// Description:
//   Insert-only hash index mapping instrument tokens to partition slots. Lookups
//   are lock-free linear probes over parallel atomic arrays and sit on the feed
//   hot path; registration is mutex-serialized and happens only during bootstrap
//   or instrument onboarding (cold path).
//
// Design Principles:
//   - Fixed capacity with power-of-2 sizing for fast modulo operations
//   - Parallel key/value arrays for cache-friendly probing
//   - Zero key sentinel enables empty-slot detection without tombstones
//   - Entries never move once published, so readers need no coordination
//     beyond the atomic key publish
//
// Token derivation:
//   Tokens are the first 8 bytes (little-endian) of the SHA3-256 digest of
//   the symbol string, forced non-zero. A cryptographic digest keeps tokens
//   stable across runs and collision-free at realistic universe sizes.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package symidx

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/sha3"

	"tickdb/utils"
)

// ============================================================================
// ERROR DEFINITIONS
// ============================================================================

var (
	// ErrIndexFull is returned when the registered symbol count reaches the
	// index capacity. The universe is sized at construction; growth is a
	// redeploy, not a runtime event.
	ErrIndexFull = errors.New("symidx: symbol capacity exhausted")

	// ErrEmptySymbol is returned for empty symbol strings.
	ErrEmptySymbol = errors.New("symidx: empty symbol")
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// Index is a fixed-capacity token → partition-slot map. Safe for any number
// of concurrent Lookup callers; Register is internally serialized.
//
//go:align 64
type Index struct {
	keys     []atomic.Uint64 // Token array (0 = empty sentinel)
	vals     []atomic.Uint32 // Partition slot array (parallel to keys)
	mask     uint64          // Size - 1 for bit-mask probing
	capacity uint32          // Maximum registrable symbols
	count    atomic.Uint32   // Registered symbols
	mu       sync.Mutex      // Serializes registration only
}

// nextPow2 calculates the smallest power of 2 greater than or equal to n.
//
//go:nosplit
//go:inline
func nextPow2(n int) uint64 {
	s := uint64(1)
	for s < uint64(n) {
		s <<= 1
	}
	return s
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New creates an index able to register up to capacity symbols. The probe
// table is sized at 2× capacity (rounded to a power of two) so probe chains
// stay short even at full registration.
func New(capacity int) *Index {
	if capacity < 1 {
		capacity = 1
	}
	sz := nextPow2(capacity * 2)
	return &Index{
		keys:     make([]atomic.Uint64, sz),
		vals:     make([]atomic.Uint32, sz),
		mask:     sz - 1,
		capacity: uint32(capacity),
	}
}

// ============================================================================
// TOKEN DERIVATION
// ============================================================================

// Token derives the stable instrument token for a symbol string: the first
// 8 bytes of SHA3-256(symbol), little-endian, forced non-zero because zero
// is the index's empty sentinel.
func Token(symbol string) uint64 {
	sum := sha3.Sum256([]byte(symbol))
	t := utils.LoadLE64(sum[:8])
	if t == 0 {
		t = utils.LoadLE64(sum[8:16]) | 1
	}
	return t
}

// ============================================================================
// REGISTRATION (COLD PATH)
// ============================================================================

// Register maps a symbol to the next free partition slot and returns its
// token and slot. Re-registering a known symbol returns the existing
// assignment. Registration is idempotent and mutex-serialized; concurrent
// lookups observe either the absence or the fully published entry, never a
// partial one, because the value is stored before the key publish.
func (ix *Index) Register(symbol string) (uint64, uint32, error) {
	if symbol == "" {
		return 0, 0, ErrEmptySymbol
	}
	token := Token(symbol)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	i := utils.Mix64(token) & ix.mask
	for {
		k := ix.keys[i].Load()
		if k == token {
			return token, ix.vals[i].Load(), nil // Already registered
		}
		if k == 0 {
			if ix.count.Load() >= ix.capacity {
				return 0, 0, ErrIndexFull
			}
			slot := ix.count.Load()
			ix.vals[i].Store(slot)  // Value first...
			ix.keys[i].Store(token) // ...then key publish
			ix.count.Add(1)
			return token, slot, nil
		}
		i = (i + 1) & ix.mask
	}
}

// ============================================================================
// LOOKUP (HOT PATH)
// ============================================================================

// Lookup resolves a token to its partition slot. Lock-free linear probe;
// returns false for unregistered tokens.
//
//go:nosplit
//go:inline
//go:registerparams
func (ix *Index) Lookup(token uint64) (uint32, bool) {
	i := utils.Mix64(token) & ix.mask
	for {
		k := ix.keys[i].Load()
		if k == token {
			return ix.vals[i].Load(), true
		}
		if k == 0 {
			return 0, false
		}
		i = (i + 1) & ix.mask
	}
}

// ============================================================================
// DIAGNOSTICS
// ============================================================================

// Count returns the number of registered symbols.
//
//go:nosplit
//go:inline
func (ix *Index) Count() uint32 {
	return ix.count.Load()
}

// Capacity returns the maximum number of registrable symbols.
//
//go:nosplit
//go:inline
func (ix *Index) Capacity() uint32 {
	return ix.capacity
}
