package qbasis

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/symmetry"
)

// State is the bit-string type of a many-body state.
type State = symmetry.State

// Norm is the element type of a norm buffer.
type Norm = basis.Norm

// PconCandidates returns C(sites, np), the size of a fixed-population search
// over sites sites starting at combin.FirstPcon(np). It saturates at
// math.MaxUint64. MakeBasisPcon rejects a max that runs past the last
// combination of the state type with ErrInvalidArgument.
func PconCandidates(sites, np int) uint64 {
	n, err := combin.Binomial(sites, np)
	if err != nil {
		return math.MaxUint64
	}
	return n
}

func buildObserver(ctx context.Context, o *options) basis.Option {
	return basis.WithObserver(func(st basis.Stats) {
		o.logger.LogBuild(ctx, st)
		o.metricsCollector.RecordBuild(st.Kind, st.Tested, st.Accepted, st.Threads, st.Duration, st.Err)
	})
}

// MakeBasis accepts every state in [0, max) whose norm under e is nonzero and
// writes the representatives and their norms to states and norms in
// ascending order. It returns the number of accepted states.
//
// When the result does not fit min(len(states), len(norms)), MakeBasis
// returns -1 and an error matching ErrInsufficientMemory.
func MakeBasis[S State, N Norm](ctx context.Context, e symmetry.Engine[S], max uint64, states []S, norms []N, opts ...Option) (int, error) {
	o := applyOptions(opts)
	n, err := basis.Make(ctx, e, max, states, norms, append(o.basisOptions(), buildObserver(ctx, &o))...)
	return n, translateError(err)
}

// MakeBasisPcon is MakeBasis restricted to the states reached from start by
// e.NextStatePcon, testing at most max candidates.
func MakeBasisPcon[S State, N Norm](ctx context.Context, e symmetry.Engine[S], start S, max uint64, states []S, norms []N, opts ...Option) (int, error) {
	o := applyOptions(opts)
	n, err := basis.MakePcon(ctx, e, start, max, states, norms, append(o.basisOptions(), buildObserver(ctx, &o))...)
	return n, translateError(err)
}

// Normalize writes the norm of every state to norms.
func Normalize[S State, N Norm](ctx context.Context, e symmetry.Engine[S], states []S, norms []N, opts ...Option) error {
	o := applyOptions(opts)
	return translateError(basis.Normalize(ctx, e, states, norms, o.basisOptions()...))
}

// Representatives maps every state to its representative. For state i the
// group element is written to g[i*e.NT():(i+1)*e.NT()] and the fermionic sign
// to signs[i].
func Representatives[S State](ctx context.Context, e symmetry.Engine[S], states, reps []S, g []int, signs []int, opts ...Option) error {
	o := applyOptions(opts)
	return translateError(basis.Representatives(ctx, e, states, reps, g, signs, o.basisOptions()...))
}

// NewExpansion builds the cluster catalog of an NLCE up to cfg.Order.
func NewExpansion[S State](ctx context.Context, cfg nlce.Config[S], opts ...Option) (*nlce.Expansion, error) {
	o := applyOptions(opts)
	logger := o.logger.WithOrder(cfg.Order)

	observer := func(ev nlce.Event) {
		logger.LogStage(ctx, ev)
		switch ev.Stage {
		case nlce.StageGrow:
			o.metricsCollector.RecordGrow(ev.Order, ev.Inputs, ev.Outputs, ev.Duration)
		case nlce.StageClassify:
			o.metricsCollector.RecordClassify(ev.Order, ev.Inputs, ev.Outputs, ev.Duration)
		case nlce.StageSubclusters:
			o.metricsCollector.RecordSubclusters(ev.Order, ev.Inputs, ev.Outputs, ev.Duration)
		}
	}

	start := time.Now()
	exp, err := nlce.NewExpansion(ctx, cfg, o.nlceOptions(observer)...)
	if err != nil {
		logger.LogExpansion(ctx, cfg.Order, 0, err)
		return nil, translateError(err)
	}
	logger.LogExpansion(ctx, cfg.Order, exp.Len(), nil)
	logger.DebugContext(ctx, "expansion timing", "duration", time.Since(start))
	return exp, nil
}
