package geometry

import (
	"fmt"
	"math"
)

// NormalizedToPixel maps one normalized point into a w x h box. The axes
// scale independently, so callers pass the box the image is actually
// rendered in, not its natural size.
func NormalizedToPixel(p NormalizedPoint, w, h float64) PixelPoint {
	return PixelPoint{X: (p.X / Scale) * w, Y: (p.Y / Scale) * h}
}

// ToPixels maps a normalized polygon into a w x h box.
func ToPixels(poly Polygon, w, h float64) []PixelPoint {
	out := make([]PixelPoint, len(poly))
	for i, p := range poly {
		out[i] = NormalizedToPixel(p, w, h)
	}
	return out
}

// ToNatural maps a normalized polygon onto the natural pixel grid of an
// image. It is ToPixels with the natural size as the box.
func ToNatural(poly Polygon, size Size) []NaturalPoint {
	out := make([]NaturalPoint, len(poly))
	for i, p := range poly {
		out[i] = NaturalPoint{X: (p.X / Scale) * size.W, Y: (p.Y / Scale) * size.H}
	}
	return out
}

// ToNormalized rescales natural-space vertices into the 0-1000 space,
// rounding to whole units and clamping to the valid range. Vertices that
// round onto their predecessor are dropped, and so is a last vertex equal to
// the first, so the result may be shorter than pts.
func ToNormalized(pts []NaturalPoint, size Size) (Polygon, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("normalizing %d points: %w", len(pts), ErrEmptySize)
	}
	out := make(Polygon, 0, len(pts))
	for _, p := range pts {
		np := NormalizedPoint{
			X: clamp(math.Round(p.X/size.W*Scale), 0, Scale),
			Y: clamp(math.Round(p.Y/size.H*Scale), 0, Scale),
		}
		if n := len(out); n > 0 && out[n-1] == np {
			continue
		}
		out = append(out, np)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out, nil
}

// ClientToNatural converts a pointer position in client coordinates into the
// natural space of the image rendered inside box.
func ClientToNatural(x, y float64, box Box, size Size) NaturalPoint {
	relX := x - box.Left
	relY := y - box.Top
	return NaturalPoint{
		X: relX * (size.W / box.W),
		Y: relY * (size.H / box.H),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
