package nlce

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/qbasis/symmetry"
)

// OrbitCounter counts the symmetry orbit of a cluster: the number of distinct
// canon classes reached by every power combination of the group generators.
//
// With a point group as group and the lattice translations as canon, the orbit
// size is the number of distinct cluster shapes per lattice site, i.e. the
// cluster's contribution to its lattice constant.
type OrbitCounter[S symmetry.State] struct {
	group symmetry.Engine[S]
	canon symmetry.Engine[S]
}

// NewOrbitCounter returns an OrbitCounter. A nil canon leaves states as they are.
func NewOrbitCounter[S symmetry.State](group, canon symmetry.Engine[S]) *OrbitCounter[S] {
	if canon == nil {
		canon = symmetry.Identity[S]{}
	}
	return &OrbitCounter[S]{group: group, canon: canon}
}

// OrbitSize returns the orbit size of seed.
//
// A group without generators yields 0: there is no symmetry to exploit, which
// callers must not read as an empty orbit.
func (o *OrbitCounter[S]) OrbitSize(seed S, sign int) int {
	nt := o.group.NT()
	if nt == 0 {
		return 0
	}
	periods := o.group.Periods()
	seen := roaring64.New()
	o.walk(seen, periods, 0, seed, sign)
	return int(seen.GetCardinality())
}

// walk recurses over the generators. At the innermost level every visited
// state is canonicalized and recorded, and the generator acts on the
// canonical form.
func (o *OrbitCounter[S]) walk(seen *roaring64.Bitmap, periods []int, depth int, s S, sign int) {
	if depth < len(periods)-1 {
		for range periods[depth] {
			o.walk(seen, periods, depth+1, s, sign)
			s = o.group.MapState(s, depth, &sign)
		}
		return
	}
	for range periods[depth] {
		s = o.canon.RefStateLess(s, &sign)
		seen.Add(uint64(s))
		s = o.group.MapState(s, depth, &sign)
	}
}

// multiplicity is the weight stored for a newly found cluster. A trivial point
// group leaves every cluster as its own orbit.
func (o *OrbitCounter[S]) multiplicity(s S) int {
	if n := o.OrbitSize(s, 1); n > 0 {
		return n
	}
	return 1
}
