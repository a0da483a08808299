// Package basis builds symmetry-reduced computational bases.
//
// A basis is the sorted list of representative states accepted by an Engine
// together with their normalization weights. Make walks the full search space
// 0..max-1; MakePcon walks max states of equal population count starting from a
// seed. Both write into caller-provided buffers and return the number of states
// written, or -1 and ErrInsufficientMemory when the buffers are too small. The
// buffers are then unspecified and the caller is expected to retry with more
// capacity.
//
// Large searches run in parallel: worker t of T tests candidates t, t+T, t+2T,
// ... into a private buffer, the buffers are packed by an exclusive prefix sum
// and the packed block is sorted. The result does not depend on T.
package basis
