// Package testutil provides testing utilities for qbasis.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random states, small ready-made symmetry engines and
// brute-force oracles the parallel code is checked against.
//
// # Random States
//
//	rng := testutil.NewRNG(seed)
//	states := rng.States(1000, 12)   // uniform 12-bit states
//	s := rng.Pcon(12, 6)             // uniform state with 6 of 12 bits set
//
// # Reference Basis
//
//	states, norms := testutil.ReferenceBasis(engine, 0, false, 1<<12)
package testutil
