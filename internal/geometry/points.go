// Package geometry implements the coordinate model for look hotspots.
//
// Three spaces are kept apart by type:
//
//   - NaturalPoint: pixels of the original image asset at its intrinsic size.
//   - NormalizedPoint: the fixed 0-1000 range used for everything that is
//     stored or exchanged, independent of any image resolution.
//   - PixelPoint: pixels of the box an image currently occupies on screen.
//
// Conversions between spaces are explicit function calls; a value of one
// type is never passed where another is expected without going through one.
package geometry

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
)

// Scale is the extent of normalized space on both axes.
const Scale = 1000.0

var (
	// ErrFormat is returned for polygon strings that do not parse.
	ErrFormat = errors.New("malformed polygon")
	// ErrOutOfRange is returned for normalized coordinates outside [0,1000].
	ErrOutOfRange = errors.New("coordinate out of range")
	// ErrTooFewPoints is returned when a closed shape has fewer than 3 vertices.
	ErrTooFewPoints = errors.New("polygon needs at least 3 points")
	// ErrEmptySize is returned when a conversion needs a size that is not known yet.
	ErrEmptySize = errors.New("size is not known")
)

// NaturalPoint is a position in the pixel space of the original image.
type NaturalPoint r2.Vec

// NormalizedPoint is a position in the 0-1000 authoring space.
type NormalizedPoint r2.Vec

// PixelPoint is a position inside the currently rendered image box,
// relative to its top-left corner.
type PixelPoint r2.Vec

// Point is satisfied by every tagged point type. Functions constrained by
// Point are space-agnostic and return values in the space they were given.
type Point interface {
	NaturalPoint | NormalizedPoint | PixelPoint
}

// Size is a width/height pair, used for the natural size of an image.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Box is the rectangle an image occupies in client (screen) coordinates.
type Box struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	W    float64 `json:"width"`
	H    float64 `json:"height"`
}

// Valid reports whether the box has a positive area.
func (b Box) Valid() bool {
	return b.W > 0 && b.H > 0
}

// Size returns the box dimensions.
func (b Box) Size() Size {
	return Size{W: b.W, H: b.H}
}

func vec[P Point](p P) r2.Vec {
	return r2.Vec(p)
}
