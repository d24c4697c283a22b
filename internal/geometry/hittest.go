package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Contains tests if p lies inside poly using ray casting.
func Contains[P Point](poly []P, p P) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	pt := vec(p)
	inside := false
	for i := 0; i < n; i++ {
		pi, pj := vec(poly[i]), vec(poly[(i+1)%n])
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// NearestVertex returns the index of the vertex closest to p within radius.
// Later vertices are drawn on top, so they win ties.
func NearestVertex[P Point](poly []P, p P, radius float64) (int, bool) {
	best := -1
	bestDist := radius
	pt := vec(p)
	for i := len(poly) - 1; i >= 0; i-- {
		d := r2.Norm(r2.Sub(vec(poly[i]), pt))
		if d < bestDist || (d == bestDist && best < 0) {
			best = i
			bestDist = d
		}
	}
	return best, best >= 0
}
