package symmetry

import (
	"fmt"
	"math"

	"github.com/hupe1980/qbasis/combin"
)

// Generator is one symmetry generator acting on lattice sites.
//
// Map[i] = j sends site i to site j. Map[i] = -(j+1) sends site i to site j and
// inverts the bit on the way, which is how spin inversion is written. Q selects
// the symmetry sector: the generator contributes exp(2*pi*i*Q*g/period) to the
// character of the power g.
type Generator struct {
	Map []int
	Q   int
}

type siteMap struct {
	to   []int
	flip []bool
}

// Permutation is an Engine for a group generated by commuting site maps.
//
// The group is the product of the cyclic groups of its generators. States are
// hard-core bosons or spins, so the reordering sign is never changed.
type Permutation[S State] struct {
	sites   int
	maps    []siteMap
	q       []int
	periods []int
}

var _ Engine[uint32] = (*Permutation[uint32])(nil)

// NewPermutation builds a permutation engine over sites lattice sites.
func NewPermutation[S State](sites int, gens ...Generator) (*Permutation[S], error) {
	if sites <= 0 || sites > combin.Width[S]() {
		return nil, fmt.Errorf("%w: %d sites do not fit %d-bit states", ErrInvalidMap, sites, combin.Width[S]())
	}
	if len(gens) > MaxNT {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyGenerators, len(gens), MaxNT)
	}

	p := &Permutation[S]{
		sites:   sites,
		maps:    make([]siteMap, len(gens)),
		q:       make([]int, len(gens)),
		periods: make([]int, len(gens)),
	}
	for k, gen := range gens {
		m, err := compileMap(sites, gen.Map)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", k, err)
		}
		p.maps[k] = m
		p.q[k] = gen.Q
		p.periods[k] = m.period()
	}
	return p, nil
}

func compileMap(sites int, raw []int) (siteMap, error) {
	if len(raw) != sites {
		return siteMap{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidMap, len(raw), sites)
	}
	m := siteMap{to: make([]int, sites), flip: make([]bool, sites)}
	seen := make([]bool, sites)
	for i, v := range raw {
		j := v
		if v < 0 {
			j = -v - 1
			m.flip[i] = true
		}
		if j >= sites {
			return siteMap{}, fmt.Errorf("%w: site %d maps to %d", ErrInvalidMap, i, j)
		}
		if seen[j] {
			return siteMap{}, fmt.Errorf("%w: site %d is hit twice", ErrInvalidMap, j)
		}
		seen[j] = true
		m.to[i] = j
	}
	return m, nil
}

// period is the lcm over cycles; a cycle with an odd number of flips needs two
// turns to return the bits unchanged.
func (m siteMap) period() int {
	visited := make([]bool, len(m.to))
	per := 1
	for start := range m.to {
		if visited[start] {
			continue
		}
		length, flips := 0, 0
		for i := start; !visited[i]; i = m.to[i] {
			visited[i] = true
			length++
			if m.flip[i] {
				flips++
			}
		}
		if flips%2 == 1 {
			length *= 2
		}
		per = lcm(per, length)
	}
	return per
}

func lcm(a, b int) int {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}

// Sites returns the number of lattice sites.
func (p *Permutation[S]) Sites() int { return p.sites }

// Order returns the number of group elements.
func (p *Permutation[S]) Order() int {
	n := 1
	for _, per := range p.periods {
		n *= per
	}
	return n
}

func (p *Permutation[S]) NT() int { return len(p.maps) }

func (p *Permutation[S]) Periods() []int {
	out := make([]int, len(p.periods))
	copy(out, p.periods)
	return out
}

func (p *Permutation[S]) apply(s S, k int) S {
	m := p.maps[k]
	var t S
	for i := 0; i < p.sites; i++ {
		b := (s >> i) & 1
		if m.flip[i] {
			b ^= 1
		}
		t |= b << m.to[i]
	}
	return t
}

func (p *Permutation[S]) MapState(s S, gen int, _ *int) S {
	return p.apply(s, gen)
}

func (p *Permutation[S]) NextStatePcon(s S) S {
	return combin.NextPcon(s)
}

// walk visits every group element applied to s. powers is reused between calls
// to fn. Returning false from fn stops the walk.
func (p *Permutation[S]) walk(s S, fn func(t S, powers []int) bool) {
	nt := len(p.maps)
	var buf [MaxNT]int
	powers := buf[:nt]

	var rec func(k int, t S) bool
	rec = func(k int, t S) bool {
		if k == nt {
			return fn(t, powers)
		}
		for g := 0; g < p.periods[k]; g++ {
			powers[k] = g
			if !rec(k+1, t) {
				return false
			}
			t = p.apply(t, k)
		}
		return true
	}
	rec(0, s)
}

func (p *Permutation[S]) character(powers []int) float64 {
	phase := 0.0
	for k, g := range powers {
		phase += float64(p.q[k]*g) / float64(p.periods[k])
	}
	return math.Cos(2 * math.Pi * phase)
}

// CheckState returns NaN unless s is the smallest state of its orbit, otherwise
// the character sum over the stabilizer of s. A zero sum means the sector
// projector annihilates s.
func (p *Permutation[S]) CheckState(s S) float64 {
	norm := 0.0
	rep := true
	p.walk(s, func(t S, powers []int) bool {
		if t < s {
			rep = false
			return false
		}
		if t == s {
			norm += p.character(powers)
		}
		return true
	})
	if !rep {
		return math.NaN()
	}
	return math.Round(norm)
}

func (p *Permutation[S]) RefState(s S, g *GroupElement, _ *int) S {
	best := s
	if g != nil {
		g.Reset()
	}
	p.walk(s, func(t S, powers []int) bool {
		if t < best {
			best = t
			if g != nil {
				copy(g.g, powers)
			}
		}
		return true
	})
	return best
}

func (p *Permutation[S]) RefStateLess(s S, _ *int) S {
	best := s
	p.walk(s, func(t S, _ []int) bool {
		if t < best {
			best = t
		}
		return true
	})
	return best
}
