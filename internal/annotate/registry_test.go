package annotate

import (
	"errors"
	"testing"
	"time"

	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

func TestApplySequence(t *testing.T) {
	s := NewSession()
	cmds := []Command{
		{Op: "load", Natural: &geometry.Size{W: 1000, H: 1000}, Box: &geometry.Box{W: 500, H: 500}},
		{Op: "click", X: 50, Y: 50},
		{Op: "click", X: 450, Y: 50},
		{Op: "click", X: 450, Y: 450},
		{Op: "close"},
		{Op: "handle", Index: 2},
		{Op: "move", X: 250, Y: 450},
		{Op: "up"},
	}
	for _, c := range cmds {
		if err := Apply(s, c); err != nil {
			t.Fatalf("applying %s: %v", c.Op, err)
		}
	}
	if s.State() != Closed {
		t.Fatalf("expected closed, got %s", s.State())
	}
	if got := s.Vertices()[2]; got != (geometry.NaturalPoint{X: 500, Y: 900}) {
		t.Errorf("unexpected dragged vertex %+v", got)
	}
}

func TestApplyUnknownOp(t *testing.T) {
	err := Apply(NewSession(), Command{Op: "explode"})
	if !errors.Is(err, ErrBadCommand) {
		t.Errorf("expected ErrBadCommand, got %v", err)
	}
}

func TestApplyHandleOutOfRange(t *testing.T) {
	if err := Apply(NewSession(), Command{Op: "handle", Index: 3}); err == nil {
		t.Error("expected error for missing vertex")
	}
}

func TestRegistryKeepsSessionsApart(t *testing.T) {
	r := NewRegistry(time.Hour)
	a := model.LookKey{Collection: "spring25", Look: "1"}
	b := model.LookKey{Collection: "spring25", Look: "2"}

	load := func(s *Session) error {
		return Apply(s, Command{Op: "load", Natural: &geometry.Size{W: 100, H: 100}, Box: &geometry.Box{W: 100, H: 100}})
	}
	for _, k := range []model.LookKey{a, b} {
		if err := r.Do("tok", k, load); err != nil {
			t.Fatalf("loading %s: %v", k, err)
		}
	}
	r.Do("tok", a, func(s *Session) error {
		_, err := s.AddVertex(PointerEvent{X: 1, Y: 1})
		return err
	})

	var na, nb int
	r.Do("tok", a, func(s *Session) error { na = len(s.Vertices()); return nil })
	r.Do("tok", b, func(s *Session) error { nb = len(s.Vertices()); return nil })
	if na != 1 || nb != 0 {
		t.Errorf("expected 1 and 0 vertices, got %d and %d", na, nb)
	}

	r.DropOwner("tok")
	if r.Len() != 0 {
		t.Errorf("expected no sessions after DropOwner, got %d", r.Len())
	}
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	key := model.LookKey{Collection: "c", Look: "l"}
	r.Do("tok", key, func(*Session) error { return nil })

	now = now.Add(30 * time.Second)
	if n := r.Sweep(); n != 0 {
		t.Errorf("expected nothing evicted, got %d", n)
	}
	now = now.Add(2 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Errorf("expected 1 evicted, got %d", n)
	}
}
