package combin

import (
	"errors"
	"iter"
	"math/bits"
)

// ErrOverflow is returned when a binomial coefficient does not fit in a uint64.
var ErrOverflow = errors.New("combin: binomial coefficient overflows uint64")

// Word is the set of unsigned integer types usable as bit masks.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Width returns the number of bits of W.
func Width[W Word]() int {
	return bits.OnesCount64(uint64(^W(0)))
}

// NextPcon returns the smallest value greater than c with the same population count.
//
// Zero maps to zero. Once c is the largest combination representable in W the
// transition wraps and NextPcon returns 0.
func NextPcon[W Word](c W) W {
	if c == 0 {
		return 0
	}
	t := (c | (c - 1)) + 1
	if t == 0 {
		return 0
	}
	return t | ((lowBit(t)/lowBit(c))>>1 - 1)
}

// FirstPcon returns the smallest value of W with np bits set.
// np is clamped to [0, Width[W]()].
func FirstPcon[W Word](np int) W {
	if np <= 0 {
		return 0
	}
	if np >= Width[W]() {
		return ^W(0)
	}
	return W(1)<<np - 1
}

// Combinations yields every mask with exactly k of the low n bits set, in
// ascending order. It yields nothing when k > n, k < 0 or n > 64, and the single
// empty mask when k == 0.
func Combinations(n, k int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if k < 0 || n < 0 || k > n || n > 64 {
			return
		}
		if k == 0 {
			yield(0)
			return
		}

		c := FirstPcon[uint64](k)
		for {
			if !yield(c) {
				return
			}
			next := NextPcon(c)
			if next <= c || (n < 64 && next>>n != 0) {
				return
			}
			c = next
		}
	}
}

// Binomial returns C(n, k). It returns ErrOverflow if the result (or an
// intermediate product) exceeds uint64.
func Binomial(n, k int) (uint64, error) {
	if k < 0 || n < 0 || k > n {
		return 0, nil
	}
	if k > n-k {
		k = n - k
	}

	r := uint64(1)
	for i := 0; i < k; i++ {
		hi, lo := bits.Mul64(r, uint64(n-i))
		d := uint64(i + 1)
		if hi >= d {
			return 0, ErrOverflow
		}
		// r*(n-i) is always divisible by i+1 at this point.
		r, _ = bits.Div64(hi, lo, d)
	}
	return r, nil
}

func lowBit[W Word](c W) W {
	return c & (^c + 1)
}
