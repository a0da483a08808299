package basis

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/qbasis/symmetry"
)

type entry[S symmetry.State, N Norm] struct {
	s S
	n N
}

// reserveFactor over-provisions each worker's share of the output capacity.
const reserveFactor = 1.1

func buildParallel[S symmetry.State, N Norm](ctx context.Context, e symmetry.Engine[S], sp search[S], basis []S, n []N, o *options) (int, error) {
	threads := o.threads
	capacity := min(len(basis), len(n))
	entrySize := int64(unsafe.Sizeof(entry[S, N]{}))

	reserve := int(reserveFactor*float64(capacity)/float64(threads)) + 1
	reserve = int(min(uint64(reserve), sp.max/uint64(threads)+1))
	reserveBytes := int64(reserve) * int64(threads) * entrySize
	if err := o.rc.TryAcquireScratch(reserveBytes); err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInsufficientMemory, err)
	}
	defer o.rc.ReleaseScratch(reserveBytes)

	var (
		accepted atomic.Int64
		overflow atomic.Bool
	)
	local := make([][]entry[S, N], threads)

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			if err := o.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()

			buf := make([]entry[S, N], 0, reserve)
			stride := uint64(threads)
			if uint64(t) >= sp.max {
				local[t] = buf
				return nil
			}
			s, ok := sp.advance(e, sp.start, t)
			if !ok {
				return sp.exhausted(uint64(t))
			}
			for i, step := uint64(t), uint64(0); i < sp.max; i, step = i+stride, step+1 {
				if overflow.Load() {
					break
				}
				if step&ctxMask == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if w, ok := symmetry.Truncate(e.CheckState(s)); ok {
					if accepted.Add(1) > int64(capacity) {
						overflow.Store(true)
						break
					}
					buf = append(buf, entry[S, N]{s: s, n: N(w)})
				}
				if i+stride < sp.max {
					if s, ok = sp.advance(e, s, threads); !ok {
						return sp.exhausted(i + stride)
					}
				}
			}
			local[t] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, err
	}

	if overflow.Load() {
		o.logger.WarnContext(ctx, "basis exceeds output capacity",
			"kind", sp.kind(),
			"capacity", capacity,
			"threads", threads,
		)
		return -1, ErrInsufficientMemory
	}

	// Exclusive scan over the per-worker counts.
	offsets := make([]int, threads+1)
	for t, buf := range local {
		offsets[t+1] = offsets[t] + len(buf)
	}
	total := offsets[threads]
	o.logger.DebugContext(ctx, "basis search done", "kind", sp.kind(), "threads", threads, "accepted", total)

	packedBytes := int64(total) * entrySize
	if err := o.rc.TryAcquireScratch(packedBytes); err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInsufficientMemory, err)
	}
	defer o.rc.ReleaseScratch(packedBytes)

	packed := make([]entry[S, N], total)
	g = new(errgroup.Group)
	for t := range local {
		g.Go(func() error {
			copy(packed[offsets[t]:offsets[t+1]], local[t])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, err
	}
	clear(local)
	o.logger.DebugContext(ctx, "basis partitioned", "total", total)

	slices.SortFunc(packed, func(a, b entry[S, N]) int { return cmp.Compare(a.s, b.s) })
	o.logger.DebugContext(ctx, "basis sorted", "total", total)

	err := forChunks(ctx, o, total, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			basis[i] = packed[i].s
			n[i] = packed[i].n
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return total, nil
}
