package lattice

// Site maps follow the symmetry.Generator convention: entry i is the image of
// site i, and -(j+1) marks an image j with the bit inverted.

// ChainTranslation shifts every site of an L-site ring by one.
func ChainTranslation(l int) []int {
	m := make([]int, l)
	for i := range m {
		m[i] = (i + 1) % l
	}
	return m
}

// ChainReflection maps site i to L-1-i.
func ChainReflection(l int) []int {
	m := make([]int, l)
	for i := range m {
		m[i] = l - 1 - i
	}
	return m
}

// SpinInversion keeps every site in place and inverts its bit.
func SpinInversion(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = -(i + 1)
	}
	return m
}

// SquareTranslations returns the unit translations along x and y of an lx by
// ly torus.
func SquareTranslations(lx, ly int) (tx, ty []int) {
	tx = make([]int, lx*ly)
	ty = make([]int, lx*ly)
	for y := 0; y < ly; y++ {
		for x := 0; x < lx; x++ {
			i := x + lx*y
			tx[i] = (x+1)%lx + lx*y
			ty[i] = x + lx*((y+1)%ly)
		}
	}
	return tx, ty
}

// SquareRotation rotates an l by l torus by 90 degrees about site 0.
func SquareRotation(l int) []int {
	m := make([]int, l*l)
	for y := 0; y < l; y++ {
		for x := 0; x < l; x++ {
			m[x+l*y] = (l-y)%l + l*x
		}
	}
	return m
}

// SquareReflection mirrors an l by l torus along the x axis through site 0.
// Together with SquareRotation it generates the point group of the square.
func SquareReflection(l int) []int {
	m := make([]int, l*l)
	for y := 0; y < l; y++ {
		for x := 0; x < l; x++ {
			m[x+l*y] = x + l*((l-y)%l)
		}
	}
	return m
}
