// Package mmap maps local artifact files read-only into memory.
//
//	m, err := mmap.Open("basis.qbs")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// On Unix the file is mapped with mmap(2) and access hints go to madvise(2).
// Other platforms read the file into memory and ignore hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; the slice
// returned by Bytes must not be used after Close.
package mmap
