package symmetry

import "github.com/hupe1980/qbasis/combin"

// Identity is the trivial engine: no generators, every state is its own
// representative with weight 1.
type Identity[S State] struct{}

var _ Engine[uint64] = Identity[uint64]{}

func (Identity[S]) CheckState(S) float64 { return 1 }

func (Identity[S]) RefState(s S, g *GroupElement, _ *int) S {
	if g != nil {
		g.Reset()
	}
	return s
}

func (Identity[S]) RefStateLess(s S, _ *int) S { return s }

func (Identity[S]) MapState(s S, _ int, _ *int) S { return s }

func (Identity[S]) NextStatePcon(s S) S { return combin.NextPcon(s) }

func (Identity[S]) NT() int { return 0 }

func (Identity[S]) Periods() []int { return nil }
