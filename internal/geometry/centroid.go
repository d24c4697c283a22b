package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// areaEpsilon guards the centroid division for near-zero signed areas.
const areaEpsilon = 1e-7

// SignedArea returns the shoelace area of poly, positive for
// counter-clockwise winding in a y-up frame.
func SignedArea[P Point](poly []P) float64 {
	n := len(poly)
	var a float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		p0, p1 := vec(poly[j]), vec(poly[i])
		a += p0.X*p1.Y - p1.X*p0.Y
	}
	return a * 0.5
}

// Centroid returns the area-weighted center of poly. Polygons whose area is
// below 1e-7 (collinear or repeated points) fall back to the vertex mean.
// An empty polygon yields the zero point.
func Centroid[P Point](poly []P) P {
	n := len(poly)
	if n == 0 {
		var zero P
		return zero
	}

	var a, cx, cy float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		p0, p1 := vec(poly[j]), vec(poly[i])
		f := p0.X*p1.Y - p1.X*p0.Y
		a += f
		cx += (p0.X + p1.X) * f
		cy += (p0.Y + p1.Y) * f
	}
	a *= 0.5

	if math.Abs(a) < areaEpsilon {
		return Mean(poly)
	}
	return P(r2.Vec{X: cx / (6 * a), Y: cy / (6 * a)})
}

// Mean returns the arithmetic mean of the vertices.
func Mean[P Point](poly []P) P {
	if len(poly) == 0 {
		var zero P
		return zero
	}
	var sum r2.Vec
	for _, p := range poly {
		sum = r2.Add(sum, vec(p))
	}
	return P(r2.Scale(1/float64(len(poly)), sum))
}
