package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/hupe1980/qbasis"
	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/symmetry"
)

// maxCandidates bounds the output buffers the basis command allocates.
const maxCandidates = 1 << 28

type basisFlags struct {
	common
	l        int
	np       int
	kblock   int
	pblock   int
	zblock   int
	capacity int
}

func runBasis(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f basisFlags
	fs := flag.NewFlagSet("basis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	fs.IntVar(&f.l, "L", 12, "linear size (sites for chain, side for square)")
	fs.IntVar(&f.np, "Np", -1, "particle number (-1 = all sectors)")
	fs.IntVar(&f.kblock, "kblock", 0, "momentum sector of every translation")
	fs.IntVar(&f.pblock, "pblock", -1, "reflection (chain) or rotation (square) sector, -1 = none")
	fs.IntVar(&f.zblock, "zblock", -1, "spin inversion sector, -1 = none")
	fs.IntVar(&f.capacity, "capacity", 0, "output buffer length (0 = number of candidates)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := f.engine()
	if err != nil {
		return err
	}
	sites := e.Sites()

	var candidates uint64
	if f.np >= 0 {
		if f.np > sites {
			return fmt.Errorf("particle number %d exceeds %d sites", f.np, sites)
		}
		candidates = qbasis.PconCandidates(sites, f.np)
	} else {
		if sites >= 64 {
			return fmt.Errorf("%d sites need -Np", sites)
		}
		candidates = uint64(1) << sites
	}

	capacity := uint64(f.capacity)
	if capacity == 0 {
		capacity = candidates
	}
	if capacity > maxCandidates {
		return fmt.Errorf("%d candidates: set -capacity below %d", candidates, maxCandidates)
	}

	rt, err := f.setup(stderr)
	if err != nil {
		return err
	}
	defer rt.shutdown()
	logger := rt.logger.WithSites(sites).WithSector(f.kblock, f.pblock, f.zblock)
	opts := append(rt.opts, qbasis.WithLogger(logger))

	states := make([]uint64, capacity)
	norms := make([]int64, capacity)
	var n int
	if f.np >= 0 {
		n, err = qbasis.MakeBasisPcon(ctx, e, combin.FirstPcon[uint64](f.np), candidates, states, norms, opts...)
	} else {
		n, err = qbasis.MakeBasis(ctx, e, candidates, states, norms, opts...)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "sites=%d candidates=%d states=%d\n", sites, candidates, n)

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
	if err := qbasis.SaveBasis(ctx, store, out.name, states[:n], norms[:n], opts...); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", f.out)
	return nil
}

func (f *basisFlags) engine() (*symmetry.Permutation[uint64], error) {
	var gens []symmetry.Generator
	switch f.lattice {
	case "chain":
		gens = append(gens, symmetry.Generator{Map: lattice.ChainTranslation(f.l), Q: f.kblock})
		if f.pblock >= 0 {
			gens = append(gens, symmetry.Generator{Map: lattice.ChainReflection(f.l), Q: f.pblock})
		}
		if f.zblock >= 0 {
			gens = append(gens, symmetry.Generator{Map: lattice.SpinInversion(f.l), Q: f.zblock})
		}
		return symmetry.NewPermutation[uint64](f.l, gens...)
	case "square":
		tx, ty := lattice.SquareTranslations(f.l, f.l)
		gens = append(gens,
			symmetry.Generator{Map: tx, Q: f.kblock},
			symmetry.Generator{Map: ty, Q: f.kblock},
		)
		if f.pblock >= 0 {
			gens = append(gens, symmetry.Generator{Map: lattice.SquareRotation(f.l), Q: f.pblock})
		}
		if f.zblock >= 0 {
			gens = append(gens, symmetry.Generator{Map: lattice.SpinInversion(f.l * f.l), Q: f.zblock})
		}
		return symmetry.NewPermutation[uint64](f.l*f.l, gens...)
	default:
		return nil, fmt.Errorf("unknown lattice %q", f.lattice)
	}
}
