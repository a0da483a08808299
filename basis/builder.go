package basis

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/symmetry"
)

// ctxMask sets how often the search loops poll their context.
const ctxMask = 1<<12 - 1

// search is one logical candidate walk.
type search[S symmetry.State] struct {
	start S
	pcon  bool
	max   uint64
}

func (sp search[S]) kind() string {
	if sp.pcon {
		return "pcon"
	}
	return "full"
}

// advance moves s forward by k candidates. It reports false when the engine's
// successor does not increase, i.e. the fixed-population sequence ran out.
func (sp search[S]) advance(e symmetry.Engine[S], s S, k int) (S, bool) {
	if !sp.pcon {
		return s + S(k), true
	}
	for range k {
		next := e.NextStatePcon(s)
		if next <= s {
			return s, false
		}
		s = next
	}
	return s, true
}

func (sp search[S]) exhausted(i uint64) error {
	return fmt.Errorf("%w: sequence from %d ends after %d of %d candidates", ErrInvalidMax, uint64(sp.start), i, sp.max)
}

// Make builds the basis of the full search space 0..max-1 into basis and n.
// It returns the number of states written, or -1 and an error.
func Make[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], max uint64, basis []S, n []N, opts ...Option) (int, error) {
	if w := combin.Width[S](); w < 64 && max > uint64(1)<<w {
		return -1, fmt.Errorf("%w: %d candidates for %d-bit states", ErrInvalidMax, max, w)
	}
	return build(ctx, e, search[S]{max: max}, basis, n, applyOptions(opts))
}

// MakePcon builds the basis over max states of equal population count,
// starting at start and advancing with the engine's NextStatePcon.
// It returns the number of states written, or -1 and an error. A max beyond
// the end of the sequence fails with ErrInvalidMax.
func MakePcon[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], start S, max uint64, basis []S, n []N, opts ...Option) (int, error) {
	return build(ctx, e, search[S]{start: start, pcon: true, max: max}, basis, n, applyOptions(opts))
}

func build[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], sp search[S], basis []S, n []N, o options) (int, error) {
	begin := time.Now()
	useParallel := parallelEligible(o, sp.max, e.NT())

	var (
		ns  int
		err error
	)
	if useParallel {
		ns, err = buildParallel(ctx, e, sp, basis, n, &o)
	} else {
		ns, err = buildSequential(ctx, e, sp, basis, n)
	}

	threads := 1
	if useParallel {
		threads = o.threads
	}
	if o.observer != nil {
		o.observer(Stats{
			Kind:     sp.kind(),
			Parallel: useParallel,
			Threads:  threads,
			Tested:   sp.max,
			Accepted: max(ns, 0),
			Duration: time.Since(begin),
			Err:      err,
		})
	}
	return ns, err
}

func parallelEligible(o options, candidates uint64, nt int) bool {
	switch o.dispatch {
	case DispatchSequential:
		return false
	case DispatchParallel:
		return o.threads > 1
	default:
		return o.threads > 1 && candidates > uint64(o.threads) && nt > 0
	}
}

func buildSequential[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], sp search[S], basis []S, n []N) (int, error) {
	capacity := min(len(basis), len(n))
	ns := 0
	s := sp.start
	for i := uint64(0); i < sp.max; i++ {
		if i&ctxMask == 0 {
			if err := ctx.Err(); err != nil {
				return -1, err
			}
		}
		if w, ok := symmetry.Truncate(e.CheckState(s)); ok {
			if ns >= capacity {
				return -1, ErrInsufficientMemory
			}
			basis[ns] = s
			n[ns] = N(w)
			ns++
		}
		if i+1 < sp.max {
			var ok bool
			if s, ok = sp.advance(e, s, 1); !ok {
				return -1, sp.exhausted(i + 1)
			}
		}
	}
	return ns, nil
}
