package annotate

import (
	"github.com/przemekoduje/overo/internal/geometry"
)

// Snapshot is the view of a session a client needs to draw the editor: the
// outline in natural space (the editor SVG uses the natural size as its
// viewBox) plus which controls are enabled.
type Snapshot struct {
	State      string         `json:"state"`
	Natural    geometry.Size  `json:"natural"`
	Vertices   [][2]float64   `json:"vertices"`
	Path       string         `json:"path"`
	RubberBand *[2][2]float64 `json:"rubber_band,omitempty"`
	Dragging   int            `json:"dragging"`
	CanUndo    bool           `json:"can_undo"`
	CanReset   bool           `json:"can_reset"`
	CanClose   bool           `json:"can_close"`
	CanExport  bool           `json:"can_export"`
}

// Snapshot captures the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:     s.State().String(),
		Natural:   s.natural,
		Vertices:  make([][2]float64, len(s.points)),
		Path:      geometry.PathD(s.points, s.closed),
		Dragging:  s.drag,
		CanUndo:   len(s.points) > 0,
		CanReset:  len(s.points) > 0,
		CanClose:  s.CanClose(),
		CanExport: s.CanExport(),
	}
	for i, p := range s.points {
		snap.Vertices[i] = [2]float64{p.X, p.Y}
	}
	if from, to, ok := s.RubberBand(); ok {
		snap.RubberBand = &[2][2]float64{{from.X, from.Y}, {to.X, to.Y}}
	}
	return snap
}
