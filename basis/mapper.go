package basis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/qbasis/symmetry"
)

// Norm is the set of types a normalization weight can be stored as.
type Norm interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// minChunk is the smallest slice a mapper worker is handed.
const minChunk = 1 << 12

// Normalize writes the normalization weight of states[i] into norms[i], or 0
// if states[i] is not a representative.
func Normalize[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], states []S, norms []N, opts ...Option) error {
	if len(norms) != len(states) {
		return &ErrBufferMismatch{Buffer: "norms", Want: len(states), Got: len(norms)}
	}
	o := applyOptions(opts)

	return forChunks(ctx, &o, len(states), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if w, ok := symmetry.Truncate(e.CheckState(states[i])); ok {
				norms[i] = N(w)
			} else {
				norms[i] = 0
			}
		}
		return nil
	})
}

// Representatives writes the representative of states[i] into reps[i].
//
// g and signs are optional. When g is non-nil it receives, row-major, NT()
// generator powers per state. When signs is non-nil signs[i] is reset to +1
// and multiplied by the reordering sign of states[i]. The representatives do
// not depend on which optional outputs are requested.
func Representatives[S symmetry.State](ctx context.Context, e symmetry.Engine[S], states, reps []S, g []int, signs []int, opts ...Option) error {
	nt := e.NT()
	if len(reps) != len(states) {
		return &ErrBufferMismatch{Buffer: "reps", Want: len(states), Got: len(reps)}
	}
	if g != nil && len(g) != len(states)*nt {
		return &ErrBufferMismatch{Buffer: "g", Want: len(states) * nt, Got: len(g)}
	}
	if signs != nil && len(signs) != len(states) {
		return &ErrBufferMismatch{Buffer: "signs", Want: len(states), Got: len(signs)}
	}
	if _, err := symmetry.NewGroupElement(nt); err != nil {
		return err
	}
	o := applyOptions(opts)

	return forChunks(ctx, &o, len(states), func(lo, hi int) error {
		var ge *symmetry.GroupElement
		if g != nil {
			ge, _ = symmetry.NewGroupElement(nt)
		}
		for i := lo; i < hi; i++ {
			sign := 1
			if ge != nil {
				reps[i] = e.RefState(states[i], ge, &sign)
				ge.CopyTo(g[i*nt : (i+1)*nt])
			} else {
				reps[i] = e.RefStateLess(states[i], &sign)
			}
			if signs != nil {
				signs[i] = sign
			}
		}
		return nil
	})
}

// forChunks splits [0, n) into contiguous chunks and runs fn on each. Small
// inputs run on the calling goroutine.
func forChunks(ctx context.Context, o *options, n int, fn func(lo, hi int) error) error {
	workers := min(o.threads, (n+minChunk-1)/minChunk)
	if workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(0, n)
	}

	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := o.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
