package overlay

import (
	"fmt"

	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

// Anchor is where the popover of the open hotspot attaches.
type Anchor struct {
	ID         string
	Normalized geometry.NormalizedPoint
}

// At scales the anchor into a w x h box, the same way the polygon is scaled.
func (a Anchor) At(w, h float64) geometry.PixelPoint {
	return geometry.NormalizedToPixel(a.Normalized, w, h)
}

// Percent returns the anchor as percentages of the box, for CSS positioning
// that follows the image through resizes.
func (a Anchor) Percent() (x, y float64) {
	return a.Normalized.X / geometry.Scale * 100, a.Normalized.Y / geometry.Scale * 100
}

// Focus tracks the single open hotspot of one overlay.
type Focus struct {
	canHover bool
	centers  map[string]geometry.NormalizedPoint
	open     string
}

// NewFocus creates a focus tracker. canHover reports whether the pointer
// device can hover; without it Hover does nothing.
func NewFocus(canHover bool) *Focus {
	return &Focus{canHover: canHover, centers: map[string]geometry.NormalizedPoint{}}
}

// SetHotspots replaces the known hotspots. The open hotspot stays open only
// if it is still present.
func (f *Focus) SetHotspots(hotspots []model.Hotspot) error {
	centers := make(map[string]geometry.NormalizedPoint, len(hotspots))
	for _, hs := range hotspots {
		poly, err := geometry.ParsePolygon(hs.Points)
		if err != nil {
			return fmt.Errorf("hotspot %q: %w", hs.ID, err)
		}
		centers[hs.ID] = geometry.Centroid(poly)
	}
	f.centers = centers
	if _, ok := centers[f.open]; !ok {
		f.open = ""
	}
	return nil
}

// reset forgets every hotspot and closes the popover.
func (f *Focus) reset() {
	f.centers = map[string]geometry.NormalizedPoint{}
	f.open = ""
}

func (f *Focus) openID(id string) bool {
	if _, ok := f.centers[id]; !ok {
		return false
	}
	f.open = id
	return true
}

// Hover opens id when the device can hover. Leaving a hotspot does not close
// it, so the pointer can travel onto the popover.
func (f *Focus) Hover(id string) bool {
	if !f.canHover {
		return false
	}
	return f.openID(id)
}

// Click toggles id and reports whether it is open afterwards.
func (f *Focus) Click(id string) bool {
	if f.open == id {
		f.open = ""
		return false
	}
	return f.openID(id)
}

// FocusKey opens id when it receives keyboard focus.
func (f *Focus) FocusKey(id string) bool {
	return f.openID(id)
}

// Escape closes the open hotspot.
func (f *Focus) Escape() { f.Close() }

// PointerDownOutside closes the open hotspot when the pointer goes down
// outside the overlay.
func (f *Focus) PointerDownOutside() { f.Close() }

// Close closes the open hotspot, if any.
func (f *Focus) Close() { f.open = "" }

// IsOpen reports whether id is the open hotspot.
func (f *Focus) IsOpen(id string) bool {
	return id != "" && f.open == id
}

// Active returns the anchor of the open hotspot.
func (f *Focus) Active() (Anchor, bool) {
	if f.open == "" {
		return Anchor{}, false
	}
	return Anchor{ID: f.open, Normalized: f.centers[f.open]}, true
}
