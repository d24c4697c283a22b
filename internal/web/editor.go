package web

import (
	"context"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/annotate"
	"github.com/przemekoduje/overo/internal/auth"
	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

// savedShape is a persisted hotspot drawn in the editor, in the natural
// space of the look.
type savedShape struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Points string `json:"points"`
}

type editorState struct {
	Look     model.Look        `json:"look"`
	Snapshot annotate.Snapshot `json:"snapshot"`
	Saved    []savedShape      `json:"saved"`
	Hotspot  *model.Hotspot    `json:"hotspot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// editorRequest carries a batch of editor interactions. Hotspot holds the
// metadata used by an export op.
type editorRequest struct {
	Commands []annotate.Command `json:"commands"`
	Hotspot  model.Hotspot      `json:"hotspot"`
}

func (s *Server) editorState(ctx context.Context, look model.Look, snap annotate.Snapshot) (editorState, error) {
	hs, err := s.Store.LoadHotspots(ctx, look.Key())
	if err != nil {
		return editorState{}, err
	}
	size := geometry.Size{W: float64(look.Width), H: float64(look.Height)}
	st := editorState{Look: look, Snapshot: snap, Saved: make([]savedShape, 0, len(hs))}
	for _, h := range hs {
		poly, err := geometry.ParsePolygon(h.Points)
		if err != nil {
			klog.Warningf("skipping hotspot %q on %s: %v", h.ID, look.Key(), err)
			continue
		}
		st.Saved = append(st.Saved, savedShape{ID: h.ID, Title: h.Title, Points: geometry.SVGPoints(geometry.ToNatural(poly, size))})
	}
	return st, nil
}

func (s *Server) handleEditorState(w http.ResponseWriter, r *http.Request) {
	key := lookKey(r)
	look, err := s.Store.GetLook(r.Context(), key)
	if err != nil {
		httpError(w, r, err)
		return
	}
	var snap annotate.Snapshot
	s.Editors.Do(auth.Token(r.Context()), key, func(sess *annotate.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	st, err := s.editorState(r.Context(), look, snap)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleEditorCommands applies a batch of commands to the admin's session on
// a look. Processing stops at the first failing command; the response always
// carries the resulting snapshot so the client can redraw.
func (s *Server) handleEditorCommands(w http.ResponseWriter, r *http.Request) {
	key := lookKey(r)
	look, err := s.Store.GetLook(r.Context(), key)
	if err != nil {
		httpError(w, r, err)
		return
	}
	var req editorRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}

	var (
		snap  annotate.Snapshot
		saved *model.Hotspot
	)
	err = s.Editors.Do(auth.Token(r.Context()), key, func(sess *annotate.Session) error {
		defer func() { snap = sess.Snapshot() }()
		for _, cmd := range req.Commands {
			if cmd.Op == "load" && cmd.Natural == nil {
				cmd.Natural = &geometry.Size{W: float64(look.Width), H: float64(look.Height)}
			}
			if cmd.Op != "export" {
				if err := annotate.Apply(sess, cmd); err != nil {
					return err
				}
				continue
			}
			_, err := sess.Export(r.Context(), func(ctx context.Context, poly geometry.Polygon) error {
				h := withDefaults(req.Hotspot)
				h.Points = poly.String()
				stored, err := s.Store.SaveHotspot(ctx, key, h)
				if err != nil {
					klog.Warningf("saving exported shape on %s: %v", key, err)
					return err
				}
				saved = &stored
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	st, stErr := s.editorState(r.Context(), look, snap)
	if stErr != nil {
		httpError(w, r, stErr)
		return
	}
	st.Hotspot = saved
	if err != nil {
		st.Error = err.Error()
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			klog.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		writeJSONStatus(w, code, st)
		return
	}
	writeJSON(w, st)
}
