// Package overlay lays out persisted hotspots over a rendered look image,
// tracks which one is open, and renders the overlay markup.
package overlay

import (
	"fmt"

	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

// Shape is a hotspot resolved against one rendered box.
type Shape struct {
	Hotspot  model.Hotspot
	Polygon  geometry.Polygon
	Points   []geometry.PixelPoint
	Center   geometry.NormalizedPoint
	Centroid geometry.PixelPoint
}

// Layout parses every hotspot and scales it into a w x h box. A malformed
// polygon fails the whole layout.
func Layout(hotspots []model.Hotspot, w, h float64) ([]Shape, error) {
	shapes := make([]Shape, 0, len(hotspots))
	for _, hs := range hotspots {
		poly, err := geometry.ParsePolygon(hs.Points)
		if err != nil {
			return nil, fmt.Errorf("hotspot %q: %w", hs.ID, err)
		}
		// Centroid is taken in normalized space and then scaled, which is
		// the same point the popover anchor uses.
		center := geometry.Centroid(poly)
		shapes = append(shapes, Shape{
			Hotspot:  hs,
			Polygon:  poly,
			Points:   geometry.ToPixels(poly, w, h),
			Center:   center,
			Centroid: geometry.NormalizedToPixel(center, w, h),
		})
	}
	return shapes, nil
}

// Label is the accessible name of a hotspot.
func Label(hs model.Hotspot) string {
	if hs.Brand == "" {
		return hs.Title
	}
	return hs.Title + " - " + hs.Brand
}
