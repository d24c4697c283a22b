// Package annotate implements the interactive polygon authoring session:
// the candidate shape an admin draws over a look before saving it as a
// hotspot.
package annotate

import (
	"context"
	"errors"
	"fmt"

	"github.com/przemekoduje/overo/internal/geometry"
)

// HandleRadius is the hit radius of a vertex handle, in natural pixels.
const HandleRadius = 16

var (
	// ErrNotLoaded means the natural size or rendered box of the image is not
	// known yet, so pointer positions cannot be converted.
	ErrNotLoaded = errors.New("image not loaded")
	// ErrNotClosed is returned by Export while the shape is still open.
	ErrNotClosed = errors.New("shape is not closed")
)

// State is the lifecycle stage of the candidate polygon.
type State int

const (
	Empty State = iota
	Building
	Closed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PointerEvent is a pointer position in client coordinates.
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ExportFunc receives the normalized polygon of a closed candidate. A non-nil
// error leaves the candidate in place so the export can be retried.
type ExportFunc func(ctx context.Context, poly geometry.Polygon) error

// Session accumulates the vertices of one candidate polygon. Vertices are
// kept in natural space; the rendered box is only used to translate pointer
// events. A Session is not safe for concurrent use.
type Session struct {
	natural geometry.Size
	box     geometry.Box
	points  []geometry.NaturalPoint
	closed  bool
	drag    int
	cursor  *geometry.NaturalPoint
}

// NewSession returns an empty session with no image loaded.
func NewSession() *Session {
	return &Session{drag: -1}
}

// Load records the natural size reported by a successful image load. A new
// size discards any candidate drawn against the previous image.
func (s *Session) Load(size geometry.Size) error {
	if !size.Valid() {
		return fmt.Errorf("loading %vx%v image: %w", size.W, size.H, geometry.ErrEmptySize)
	}
	if s.natural.Valid() && s.natural != size {
		s.Reset()
	}
	s.natural = size
	return nil
}

// SetBox records the client-space box the image is rendered in. It changes
// on every layout pass and does not affect stored vertices.
func (s *Session) SetBox(box geometry.Box) error {
	if !box.Valid() {
		return fmt.Errorf("rendered box %vx%v: %w", box.W, box.H, geometry.ErrEmptySize)
	}
	s.box = box
	return nil
}

// Loaded reports whether pointer events can be converted.
func (s *Session) Loaded() bool {
	return s.natural.Valid() && s.box.Valid()
}

// NaturalSize returns the natural size of the loaded image.
func (s *Session) NaturalSize() geometry.Size {
	return s.natural
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	switch {
	case s.closed:
		return Closed
	case len(s.points) > 0:
		return Building
	default:
		return Empty
	}
}

// Dragging returns the index of the vertex being dragged.
func (s *Session) Dragging() (int, bool) {
	return s.drag, s.drag >= 0
}

// Vertices returns a copy of the candidate in natural space.
func (s *Session) Vertices() []geometry.NaturalPoint {
	out := make([]geometry.NaturalPoint, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Session) toNatural(ev PointerEvent) (geometry.NaturalPoint, error) {
	if !s.Loaded() {
		return geometry.NaturalPoint{}, ErrNotLoaded
	}
	return geometry.ClientToNatural(ev.X, ev.Y, s.box, s.natural), nil
}

// AddVertex appends the event position to the candidate. It is ignored while
// the shape is closed, while a vertex is being dragged, and when the point
// repeats the previous vertex.
func (s *Session) AddVertex(ev PointerEvent) (bool, error) {
	if s.closed || s.drag >= 0 {
		return false, nil
	}
	p, err := s.toNatural(ev)
	if err != nil {
		return false, err
	}
	if n := len(s.points); n > 0 && s.points[n-1] == p {
		return false, nil
	}
	s.points = append(s.points, p)
	return true, nil
}

// BeginDrag starts relocating vertex i.
func (s *Session) BeginDrag(i int) bool {
	if i < 0 || i >= len(s.points) {
		return false
	}
	s.drag = i
	s.cursor = nil
	return true
}

// BeginDragAt starts dragging the handle under the pointer, if any.
func (s *Session) BeginDragAt(ev PointerEvent) (bool, error) {
	p, err := s.toNatural(ev)
	if err != nil {
		return false, err
	}
	i, ok := geometry.NearestVertex(s.points, p, HandleRadius)
	if !ok {
		return false, nil
	}
	return s.BeginDrag(i), nil
}

// UpdateDrag moves the dragged vertex to the event position. Vertex count
// and order never change. A position equal to either neighbour is ignored.
func (s *Session) UpdateDrag(ev PointerEvent) (bool, error) {
	if s.drag < 0 {
		return false, nil
	}
	p, err := s.toNatural(ev)
	if err != nil {
		return false, err
	}
	if n := len(s.points); n > 1 {
		prev := s.points[(s.drag-1+n)%n]
		next := s.points[(s.drag+1)%n]
		if p == prev || p == next {
			return false, nil
		}
	}
	s.points[s.drag] = p
	return true, nil
}

// EndDrag leaves the dragging sub-state.
func (s *Session) EndDrag() {
	s.drag = -1
}

// Move tracks the pointer for the rubber-band segment drawn from the last
// vertex while the shape is open. While dragging it behaves as UpdateDrag.
func (s *Session) Move(ev PointerEvent) error {
	if s.drag >= 0 {
		_, err := s.UpdateDrag(ev)
		return err
	}
	p, err := s.toNatural(ev)
	if err != nil {
		return err
	}
	s.cursor = &p
	return nil
}

// Leave handles the pointer leaving the image: any drag ends and the rubber
// band is hidden.
func (s *Session) Leave() {
	s.drag = -1
	s.cursor = nil
}

// RubberBand returns the segment from the last vertex to the pointer.
func (s *Session) RubberBand() (from, to geometry.NaturalPoint, ok bool) {
	if s.closed || s.cursor == nil || len(s.points) == 0 {
		return from, to, false
	}
	return s.points[len(s.points)-1], *s.cursor, true
}

// Undo reopens a closed shape and removes the last vertex.
func (s *Session) Undo() bool {
	if len(s.points) == 0 {
		return false
	}
	s.closed = false
	s.drag = -1
	s.points = s.points[:len(s.points)-1]
	return true
}

// Reset discards the candidate unconditionally.
func (s *Session) Reset() {
	s.points = nil
	s.closed = false
	s.drag = -1
	s.cursor = nil
}

// CanClose reports whether Close would succeed.
func (s *Session) CanClose() bool {
	return !s.closed && len(s.points) >= 3
}

// Close finalizes the outline. Below three vertices it does nothing.
func (s *Session) Close() bool {
	if !s.CanClose() {
		return false
	}
	s.closed = true
	s.cursor = nil
	return true
}

// CanExport reports whether Export would hand a polygon to its callback.
func (s *Session) CanExport() bool {
	return s.closed && len(s.points) >= 3
}

// Export converts the closed candidate to normalized space, hands it to fn and
// resets the session. Below three vertices it does nothing. Vertices that
// round onto the same normalized point are merged; if fewer than three remain
// Export fails with geometry.ErrTooFewPoints. If fn fails the candidate stays
// closed and intact.
func (s *Session) Export(ctx context.Context, fn ExportFunc) (geometry.Polygon, error) {
	if len(s.points) < 3 {
		return nil, nil
	}
	if !s.closed {
		return nil, ErrNotClosed
	}
	if !s.natural.Valid() {
		return nil, ErrNotLoaded
	}

	poly, err := geometry.ToNormalized(s.points, s.natural)
	if err != nil {
		return nil, err
	}
	if err := poly.Validate(); err != nil {
		return nil, fmt.Errorf("exporting %d-point shape: %w", len(s.points), err)
	}
	if fn != nil {
		if err := fn(ctx, poly); err != nil {
			return nil, fmt.Errorf("exporting %d-point shape: %w", len(poly), err)
		}
	}

	s.Reset()
	return poly, nil
}
