package nlce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/symmetry"
	"github.com/hupe1980/qbasis/testutil"
)

func perm(t testing.TB, sites int, maps ...[]int) *symmetry.Permutation[uint32] {
	t.Helper()
	gens := make([]symmetry.Generator, len(maps))
	for i, m := range maps {
		gens[i] = symmetry.Generator{Map: m}
	}
	p, err := symmetry.NewPermutation[uint32](sites, gens...)
	require.NoError(t, err)
	return p
}

func classify(t testing.TB, clusters Clusters[uint32], nl *lattice.NeighborList) []*Topology[uint32] {
	t.Helper()
	topos, err := Classify(clusters, nl)
	require.NoError(t, err)
	return topos
}

func chainConfig(t testing.TB, order int) Config[uint32] {
	t.Helper()
	l := 2*order + 2
	nl, err := lattice.Chain(l, true)
	require.NoError(t, err)
	tr, p := lattice.ChainTranslation(l), lattice.ChainReflection(l)
	return Config[uint32]{
		Order:       order,
		Lattice:     nl,
		Full:        perm(t, l, p, tr),
		Point:       perm(t, l, p),
		Translation: perm(t, l, tr),
	}
}

func squareConfig(t testing.TB, order int) Config[uint32] {
	t.Helper()
	const l = 5
	nl, err := lattice.Square(l, l, true)
	require.NoError(t, err)
	tx, ty := lattice.SquareTranslations(l, l)
	r, f := lattice.SquareRotation(l), lattice.SquareReflection(l)
	return Config[uint32]{
		Order:       order,
		Lattice:     nl,
		Full:        perm(t, l*l, r, f, tx, ty),
		Point:       perm(t, l*l, r, f),
		Translation: perm(t, l*l, tx, ty),
	}
}

func TestOrbitSize(t *testing.T) {
	identity := symmetry.Identity[uint32]{}

	t.Run("FreeAction", func(t *testing.T) {
		g := perm(t, 6, lattice.ChainTranslation(6))
		assert.Equal(t, 6, NewOrbitCounter[uint32](g, identity).OrbitSize(0b1, 1))
		assert.Equal(t, 6, NewOrbitCounter[uint32](g, nil).OrbitSize(0b11, 1))
	})

	t.Run("Stabilizer", func(t *testing.T) {
		g := perm(t, 4, lattice.ChainTranslation(4))
		oc := NewOrbitCounter[uint32](g, identity)
		assert.Equal(t, 2, oc.OrbitSize(0b0101, 1))
		assert.Equal(t, 1, oc.OrbitSize(0b1111, 1))
	})

	t.Run("TrivialGroup", func(t *testing.T) {
		oc := NewOrbitCounter[uint32](identity, identity)
		assert.Zero(t, oc.OrbitSize(0b1, 1))
		assert.Equal(t, 1, oc.multiplicity(0b1))
	})

	t.Run("CanonicalImages", func(t *testing.T) {
		cfg := squareConfig(t, 3)
		oc := NewOrbitCounter(cfg.Point, cfg.Translation)
		// Horizontal bond: rotation yields the vertical bond.
		assert.Equal(t, 2, oc.OrbitSize(0b11, 1))
		// Bent three-site cluster: four orientations.
		assert.Equal(t, 4, oc.OrbitSize(0b1<<0|0b1<<1|0b1<<6, 1))
	})

	t.Run("MatchesReference", func(t *testing.T) {
		g := perm(t, 8, lattice.ChainTranslation(8), lattice.ChainReflection(8))
		oc := NewOrbitCounter[uint32](g, identity)
		rng := testutil.NewRNG(4711)
		for _, s := range rng.States(50, 8) {
			want := testutil.ReferenceOrbit[uint32](g, identity, uint32(s))
			assert.Equal(t, len(want), oc.OrbitSize(uint32(s), 1), "state %08b", s)
		}
	})
}

func TestGrow(t *testing.T) {
	cfg := chainConfig(t, 4)
	g, err := NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), cfg.Lattice)
	require.NoError(t, err)

	seeds := g.Seed()
	assert.Equal(t, Clusters[uint32]{0b1: 1}, seeds)

	next, err := g.Grow(context.Background(), seeds)
	require.NoError(t, err)
	assert.Equal(t, Clusters[uint32]{0b11: 1}, next)

	next, err = g.Grow(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, Clusters[uint32]{0b111: 1}, next)
}

func TestGrow_Deterministic(t *testing.T) {
	cfg := squareConfig(t, 4)
	g, err := NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), cfg.Lattice)
	require.NoError(t, err)

	grow := func(threads int) Clusters[uint32] {
		c := g.Seed()
		for range 3 {
			c, err = g.Grow(context.Background(), c, WithThreads(threads))
			require.NoError(t, err)
		}
		return c
	}
	want := grow(1)
	// Five free tetrominoes, counted per site: 19 fixed tetrominoes.
	assert.Len(t, want, 5)
	total := 0
	for _, m := range want {
		total += m
	}
	assert.Equal(t, 19, total)

	for _, threads := range []int{2, 3, 8} {
		assert.Equal(t, want, grow(threads))
	}
}

func TestGrow_Errors(t *testing.T) {
	nl, err := lattice.Chain(40, true)
	require.NoError(t, err)
	p := symmetry.Identity[uint32]{}
	_, err = NewGrower[uint32](p, NewOrbitCounter[uint32](p, p), nl)
	assert.ErrorIs(t, err, ErrStateWidth)

	_, err = NewGrower[uint32](nil, nil, nl)
	assert.ErrorIs(t, err, ErrMissingEngine)

	cfg := chainConfig(t, 3)
	g, err := NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), cfg.Lattice)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Grow(ctx, g.Seed())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifier(t *testing.T) {
	nl, err := lattice.Square(4, 4, false)
	require.NoError(t, err)

	c := NewClassifier[uint32](nl)
	// Three-site paths, straight and bent, and a 2x2 block.
	straight := uint32(0b111)
	bent := uint32(1<<0 | 1<<1 | 1<<5)
	vertical := uint32(1<<0 | 1<<4 | 1<<8)
	square := uint32(1<<0 | 1<<1 | 1<<4 | 1<<5)

	for _, tt := range []struct {
		s    uint32
		mul  int
		want int
	}{
		{straight, 2, 0},
		{bent, 4, 0},
		{vertical, 1, 0},
		{square, 1, 1},
		{square, 1, 1},
	} {
		i, err := c.Add(tt.s, tt.mul)
		require.NoError(t, err)
		assert.Equal(t, tt.want, i, "cluster %#b", tt.s)
	}

	require.Equal(t, 2, c.Len())
	topos := c.Topologies()
	assert.Equal(t, straight, topos[0].State)
	assert.Equal(t, 7, topos[0].Multiplicity)
	assert.Equal(t, 3, topos[0].Order())
	assert.Equal(t, 2, topos[1].Multiplicity)
	assert.Equal(t, 4, topos[1].Graph.Size())
}

func TestClassify_Order(t *testing.T) {
	nl, err := lattice.Chain(8, false)
	require.NoError(t, err)
	topos, err := Classify(Clusters[uint32]{0b0110: 1, 0b0011: 2, 0b1100: 3}, nl)
	require.NoError(t, err)
	require.Len(t, topos, 1)
	assert.Equal(t, uint32(0b0011), topos[0].State)
	assert.Equal(t, 6, topos[0].Multiplicity)
}

func TestSubclusters(t *testing.T) {
	nl, err := lattice.Chain(3, false)
	require.NoError(t, err)

	bonds := classify(t, Clusters[uint32]{0b011: 1}, nl)
	got := Subclusters([]int{0, 1, 2}, 2, nl, bonds)
	assert.Equal(t, map[uint32]int{0b011: 2}, got)

	sites := classify(t, Clusters[uint32]{0b001: 1}, nl)
	assert.Equal(t, map[uint32]int{0b001: 3}, Subclusters([]int{0, 1, 2}, 1, nl, sites))

	// A 2x2 block holds four bonds and four bent three-site paths.
	sq, err := lattice.Square(4, 4, false)
	require.NoError(t, err)
	block := []int{0, 1, 4, 5}
	assert.Equal(t, []int{4}, countSubclusters(block, 2, sq, classify(t, Clusters[uint32]{0b11: 1}, sq)))
	assert.Equal(t, []int{4}, countSubclusters(block, 3, sq, classify(t, Clusters[uint32]{0b111: 1}, sq)))
}

func TestClusterSitesOutsideLattice(t *testing.T) {
	nl, err := lattice.Chain(4, false)
	require.NoError(t, err)

	_, err = Classify(Clusters[uint32]{1 << 10: 1}, nl)
	assert.ErrorIs(t, err, ErrClusterSites)

	c := NewClassifier[uint32](nl)
	i, err := c.Add(0b10001, 1)
	assert.Equal(t, -1, i)
	assert.ErrorIs(t, err, ErrClusterSites)
	assert.Equal(t, 0, c.Len())

	_, err = c.Add(0b1111, 1)
	require.NoError(t, err)

	cfg := chainConfig(t, 2)
	g, err := NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), cfg.Lattice)
	require.NoError(t, err)
	_, err = g.Grow(context.Background(), Clusters[uint32]{1 << 20: 1}, WithThreads(2))
	assert.ErrorIs(t, err, ErrClusterSites)

	_, err = NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), nil)
	assert.ErrorIs(t, err, lattice.ErrInvalidNeighborList)
}
