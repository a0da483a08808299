// Package combin enumerates fixed-population bit masks.
//
// The core primitive is NextPcon, the constant-time "next combination with the
// same population count" transition (Gosper's hack):
//
//	t := (c | (c - 1)) + 1
//	c' := t | ((((t & -t) / (c & -c)) >> 1) - 1)
//
// Combinations wraps it in a lazy, finite and restartable iter.Seq so callers can
// walk the k-subsets of an n-element set in ascending mask order without touching
// the other 2^n - C(n,k) masks:
//
//	for mask := range combin.Combinations(5, 2) {
//	    // 0b00011, 0b00101, 0b00110, 0b01001, ...
//	}
package combin
