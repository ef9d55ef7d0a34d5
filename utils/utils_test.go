// ============================================================================
// ZERO-ALLOC UTILITY VALIDATION SUITE
// ============================================================================

package utils

import (
	"testing"
)

// TestB2sRoundTrip validates the zero-copy byte → string cast
func TestB2sRoundTrip(t *testing.T) {
	cases := [][]byte{nil, {}, []byte("x"), []byte("BTC-USD")}
	for _, b := range cases {
		if got := B2s(b); got != string(b) {
			t.Fatalf("B2s(%q) = %q", b, got)
		}
	}
}

// TestB2sZeroAllocation validates the cast allocates nothing
func TestB2sZeroAllocation(t *testing.T) {
	b := []byte("ETH-USD")
	allocs := testing.AllocsPerRun(10000, func() {
		if len(B2s(b)) != 7 {
			t.Fatal("bad length")
		}
	})
	if allocs != 0 {
		t.Fatalf("B2s allocated %.1f times", allocs)
	}
}

// TestItoa validates signed decimal formatting across edges
func TestItoa(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-1, "-1"},
		{-906, "-906"},
		{1234567890, "1234567890"},
	}
	for _, tc := range cases {
		if got := Itoa(tc.in); got != tc.want {
			t.Fatalf("Itoa(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestLoadStoreLE validates the explicit little-endian codec helpers
func TestLoadStoreLE(t *testing.T) {
	var buf [8]byte

	StoreLE64(buf[:], 0x0102030405060708)
	if buf[0] != 0x08 || buf[7] != 0x01 {
		t.Fatalf("StoreLE64 layout wrong: % x", buf)
	}
	if got := LoadLE64(buf[:]); got != 0x0102030405060708 {
		t.Fatalf("LoadLE64 = %#x", got)
	}

	StoreLE32(buf[:4], 0xAABBCCDD)
	if buf[0] != 0xDD || buf[3] != 0xAA {
		t.Fatalf("StoreLE32 layout wrong: % x", buf[:4])
	}
	if got := LoadLE32(buf[:4]); got != 0xAABBCCDD {
		t.Fatalf("LoadLE32 = %#x", got)
	}
}

// TestParseDecU64 validates decimal parsing with early exit and overflow guard
func TestParseDecU64(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"42", 42},
		{"1722945600123456789", 1722945600123456789},
		{"18446744073709551615", 18446744073709551615}, // MaxUint64
		{"123abc", 123}, // Stops at first non-digit
		{"", 0},
		{"x", 0},
	}
	for _, tc := range cases {
		if got := ParseDecU64([]byte(tc.in)); got != tc.want {
			t.Fatalf("ParseDecU64(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestJSONMicroScanners validates field detection and span extraction
func TestJSONMicroScanners(t *testing.T) {
	b := []byte(`"s":"BTC-USD","b":123`)

	q := FindQuote(b)
	if q < 0 || b[q] != '"' {
		t.Fatalf("FindQuote = %d", q)
	}
	if got := SliceASCII(b, q); string(got) != "BTC-USD" {
		t.Fatalf("SliceASCII = %q", got)
	}

	if got := SliceASCII(b, 0); string(got) != "s" {
		t.Fatalf("SliceASCII at 0 = %q", got)
	}
	if SliceASCII(b, len(b)) != nil {
		t.Fatal("SliceASCII out of range should be nil")
	}

	// Number span after the last colon
	n := SliceNumber(b, len(b)-4)
	if string(n) != "123" {
		t.Fatalf("SliceNumber = %q", n)
	}

	// Malformed: garbage between ':' and '"'
	if got := FindQuote([]byte(`"s": x"v"`)); got != -1 {
		t.Fatalf("FindQuote on malformed input = %d, want -1", got)
	}
}

// TestMix64 validates avalanche sanity: distinct inputs give distinct
// outputs, and adjacent inputs do not map to adjacent outputs
func TestMix64(t *testing.T) {
	seen := make(map[uint64]struct{}, 1000)
	for i := uint64(1); i <= 1000; i++ {
		m := Mix64(i)
		if _, dup := seen[m]; dup {
			t.Fatalf("Mix64 collision at %d", i)
		}
		seen[m] = struct{}{}
	}

	// Adjacent inputs must not produce adjacent outputs
	if Mix64(1)+1 == Mix64(2) {
		t.Fatal("Mix64 preserves adjacency")
	}
}
