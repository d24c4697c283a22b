package annotate

import (
	"errors"
	"fmt"

	"github.com/przemekoduje/overo/internal/geometry"
)

// ErrBadCommand is returned for commands that are malformed or name an
// unknown op.
var ErrBadCommand = errors.New("bad editor command")

// Command is one editor interaction sent by a remote client. Which fields are
// read depends on Op.
type Command struct {
	Op      string         `json:"op"`
	X       float64        `json:"x,omitempty"`
	Y       float64        `json:"y,omitempty"`
	Index   int            `json:"index,omitempty"`
	Box     *geometry.Box  `json:"box,omitempty"`
	Natural *geometry.Size `json:"natural,omitempty"`
}

// Apply runs a single non-export command against s. Events that the session
// ignores (a click while closed, a move with no drag) are not errors.
func Apply(s *Session, cmd Command) error {
	ev := PointerEvent{X: cmd.X, Y: cmd.Y}
	switch cmd.Op {
	case "load":
		if cmd.Natural == nil {
			return fmt.Errorf("%w: load without natural size", ErrBadCommand)
		}
		if err := s.Load(*cmd.Natural); err != nil {
			return err
		}
		if cmd.Box != nil {
			return s.SetBox(*cmd.Box)
		}
		return nil
	case "layout":
		if cmd.Box == nil {
			return fmt.Errorf("%w: layout without box", ErrBadCommand)
		}
		return s.SetBox(*cmd.Box)
	case "click":
		_, err := s.AddVertex(ev)
		return err
	case "handle":
		if !s.BeginDrag(cmd.Index) {
			return fmt.Errorf("%w: no vertex %d", ErrBadCommand, cmd.Index)
		}
		return nil
	case "down":
		_, err := s.BeginDragAt(ev)
		return err
	case "move":
		return s.Move(ev)
	case "up":
		s.EndDrag()
		return nil
	case "leave":
		s.Leave()
		return nil
	case "undo":
		s.Undo()
		return nil
	case "reset":
		s.Reset()
		return nil
	case "close":
		s.Close()
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", ErrBadCommand, cmd.Op)
	}
}
