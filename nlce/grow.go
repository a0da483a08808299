package nlce

import (
	"context"
	"fmt"
	"maps"
	"math/bits"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/symmetry"
)

// Clusters maps canonical cluster states to their multiplicity.
type Clusters[S symmetry.State] map[S]int

// Grower extends clusters by one site.
type Grower[S symmetry.State] struct {
	full  symmetry.Engine[S]
	orbit *OrbitCounter[S]
	nl    *lattice.NeighborList
}

// NewGrower returns a Grower that canonicalizes new clusters with full and
// weights them with orbit.
func NewGrower[S symmetry.State](full symmetry.Engine[S], orbit *OrbitCounter[S], nl *lattice.NeighborList) (*Grower[S], error) {
	if full == nil || orbit == nil {
		return nil, ErrMissingEngine
	}
	if nl == nil {
		return nil, fmt.Errorf("%w: nil lattice", lattice.ErrInvalidNeighborList)
	}
	if nl.Sites() > combin.Width[S]() {
		return nil, fmt.Errorf("%w: %d sites, %d bits", ErrStateWidth, nl.Sites(), combin.Width[S]())
	}
	return &Grower[S]{full: full, orbit: orbit, nl: nl}, nil
}

// Seed returns the canonical single-site cluster.
func (g *Grower[S]) Seed() Clusters[S] {
	sign := 1
	s := g.full.RefStateLess(1, &sign)
	return Clusters[S]{s: g.orbit.multiplicity(s)}
}

type found[S symmetry.State] struct {
	s   S
	mul int
}

// Grow returns every canonical cluster obtained by adding one unoccupied
// neighbor site to a seed.
//
// Seeds are dealt round-robin, in ascending state order, to the workers. Each
// worker deduplicates only its own discoveries; a state found by two workers
// carries the same multiplicity in both and collapses on merge.
func (g *Grower[S]) Grow(ctx context.Context, seeds Clusters[S], opts ...Option) (Clusters[S], error) {
	o := applyOptions(opts)
	begin := time.Now()

	keys := slices.Sorted(maps.Keys(seeds))
	for _, k := range keys {
		if err := checkSites(k, g.nl); err != nil {
			return nil, err
		}
	}
	threads := max(1, min(o.threads, len(keys)))
	local := make([][]found[S], threads)

	eg, egctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		eg.Go(func() error {
			if err := o.rc.AcquireWorker(egctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()

			seen := roaring64.New()
			for i := t; i < len(keys); i += threads {
				if err := egctx.Err(); err != nil {
					return err
				}
				local[t] = g.extend(keys[i], seen, local[t])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(Clusters[S])
	for _, list := range local {
		for _, f := range list {
			out[f.s] = f.mul
		}
	}

	o.logger.DebugContext(ctx, "clusters grown", "seeds", len(seeds), "clusters", len(out), "threads", threads)
	o.emit(Event{Stage: StageGrow, Order: grownOrder(keys), Inputs: len(seeds), Outputs: len(out), Duration: time.Since(begin)})
	return out, nil
}

func grownOrder[S symmetry.State](seeds []S) int {
	if len(seeds) == 0 {
		return 0
	}
	return bits.OnesCount64(uint64(seeds[0])) + 1
}

func (g *Grower[S]) extend(seed S, seen *roaring64.Bitmap, out []found[S]) []found[S] {
	sign := 1
	for pos, s := 0, seed; s != 0; pos, s = pos+1, s>>1 {
		if s&1 == 0 {
			continue
		}
		for _, nn := range g.nl.Row(pos) {
			if nn < 0 || (seed>>nn)&1 == 1 {
				continue
			}
			r := g.full.RefStateLess(seed|S(1)<<nn, &sign)
			if seen.Contains(uint64(r)) {
				continue
			}
			seen.Add(uint64(r))
			out = append(out, found[S]{s: r, mul: g.orbit.multiplicity(r)})
		}
	}
	return out
}
