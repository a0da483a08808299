package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/hupe1980/qbasis"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/symmetry"
)

type nlceFlags struct {
	common
	order int
}

func runNLCE(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f nlceFlags
	fs := flag.NewFlagSet("nlce", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	fs.IntVar(&f.order, "order", 4, "largest cluster size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}
	rt, err := f.setup(stderr)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	exp, err := qbasis.NewExpansion(ctx, cfg, rt.opts...)
	if err != nil {
		return err
	}

	counts := make([]int, exp.Order())
	for _, o := range exp.Orders() {
		counts[o-1]++
	}
	for i, c := range counts {
		fmt.Fprintf(stdout, "order=%d topologies=%d\n", i+1, c)
	}

	if f.out == "" {
		return nil
	}
	out, err := parseOutput(f.out)
	if err != nil {
		return err
	}
	store, err := out.open(ctx)
	if err != nil {
		return err
	}
	if err := qbasis.SaveExpansion(ctx, store, out.name, exp, rt.opts...); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", f.out)
	return nil
}

// config sizes the periodic lattice so that no cluster up to the order wraps
// around it.
func (f *nlceFlags) config() (nlce.Config[uint64], error) {
	var (
		sites              int
		nl                 *lattice.NeighborList
		full, point, trans []symmetry.Generator
		err                error
	)
	switch f.lattice {
	case "chain":
		l := 2*f.order + 2
		sites = l
		nl, err = lattice.Chain(l, true)
		tr := symmetry.Generator{Map: lattice.ChainTranslation(l)}
		p := symmetry.Generator{Map: lattice.ChainReflection(l)}
		full, point, trans = []symmetry.Generator{p, tr}, []symmetry.Generator{p}, []symmetry.Generator{tr}
	case "square":
		l := max(f.order+1, 3)
		sites = l * l
		nl, err = lattice.Square(l, l, true)
		txm, tym := lattice.SquareTranslations(l, l)
		tx, ty := symmetry.Generator{Map: txm}, symmetry.Generator{Map: tym}
		r := symmetry.Generator{Map: lattice.SquareRotation(l)}
		m := symmetry.Generator{Map: lattice.SquareReflection(l)}
		full, point, trans = []symmetry.Generator{r, m, tx, ty}, []symmetry.Generator{r, m}, []symmetry.Generator{tx, ty}
	default:
		return nlce.Config[uint64]{}, fmt.Errorf("unknown lattice %q", f.lattice)
	}
	if err != nil {
		return nlce.Config[uint64]{}, err
	}
	if sites > 64 {
		return nlce.Config[uint64]{}, fmt.Errorf("order %d needs %d sites, more than a 64-bit state holds", f.order, sites)
	}

	cfg := nlce.Config[uint64]{Order: f.order, Lattice: nl}
	if cfg.Full, err = symmetry.NewPermutation[uint64](sites, full...); err != nil {
		return cfg, err
	}
	if cfg.Point, err = symmetry.NewPermutation[uint64](sites, point...); err != nil {
		return cfg, err
	}
	if cfg.Translation, err = symmetry.NewPermutation[uint64](sites, trans...); err != nil {
		return cfg, err
	}
	return cfg, nil
}
