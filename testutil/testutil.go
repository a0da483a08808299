package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/symmetry"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// States returns n uniform states of the given bit width.
func (r *RNG) States(n, width int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	mask := ^uint64(0)
	if width < 64 {
		mask = uint64(1)<<width - 1
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.rand.Uint64() & mask
	}
	return out
}

// Pcon returns a uniform state with np of the low sites bits set.
func (r *RNG) Pcon(sites, np int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	perm := r.rand.Perm(sites)
	var s uint64
	for _, i := range perm[:np] {
		s |= 1 << i
	}
	return s
}

// ReferenceBasis scans max candidates one by one without any capacity
// handling.
func ReferenceBasis[S symmetry.State](e symmetry.Engine[S], start S, pcon bool, max uint64) ([]S, []int64) {
	var (
		states []S
		norms  []int64
	)
	s := start
	for i := uint64(0); i < max; i++ {
		if w, ok := symmetry.Truncate(e.CheckState(s)); ok {
			states = append(states, s)
			norms = append(norms, w)
		}
		if pcon {
			s = e.NextStatePcon(s)
		} else {
			s++
		}
	}
	return states, norms
}

// ReferenceOrbit applies every power combination of the generators of group
// to s and returns the distinct canon representatives it reaches.
func ReferenceOrbit[S symmetry.State](group, canon symmetry.Engine[S], s S) map[S]struct{} {
	seen := map[S]struct{}{}
	sign := 1
	frontier := []S{s}
	visited := map[S]struct{}{s: {}}
	for len(frontier) > 0 {
		t := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		seen[canon.RefStateLess(t, &sign)] = struct{}{}
		for k := 0; k < group.NT(); k++ {
			u := group.MapState(t, k, &sign)
			if _, ok := visited[u]; !ok {
				visited[u] = struct{}{}
				frontier = append(frontier, u)
			}
		}
	}
	return seen
}

// ChainEngine returns the translation (momentum q) engine of an l-site ring,
// optionally with reflection parity p (0 or 1) and spin inversion parity z.
func ChainEngine[S symmetry.State](l, q int, p, z *int) (*symmetry.Permutation[S], error) {
	gens := []symmetry.Generator{{Map: lattice.ChainTranslation(l), Q: q}}
	if p != nil {
		gens = append(gens, symmetry.Generator{Map: lattice.ChainReflection(l), Q: *p})
	}
	if z != nil {
		gens = append(gens, symmetry.Generator{Map: lattice.SpinInversion(l), Q: *z})
	}
	return symmetry.NewPermutation[S](l, gens...)
}

// PconCount returns C(sites, np), panicking on overflow.
func PconCount(sites, np int) uint64 {
	n, err := combin.Binomial(sites, np)
	if err != nil {
		panic(err)
	}
	return n
}
