package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/annotate"
	"github.com/przemekoduje/overo/internal/auth"
	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/overlay"
	"github.com/przemekoduje/overo/internal/store"
)

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, geometry.ErrFormat),
		errors.Is(err, geometry.ErrOutOfRange),
		errors.Is(err, geometry.ErrTooFewPoints),
		errors.Is(err, geometry.ErrEmptySize),
		errors.Is(err, annotate.ErrNotClosed),
		errors.Is(err, annotate.ErrBadCommand),
		errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, annotate.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func httpError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		klog.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	http.Error(w, err.Error(), code)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

func lookKey(r *http.Request) model.LookKey {
	return model.LookKey{Collection: r.PathValue("c"), Look: r.PathValue("l")}
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.Store.ListCollections(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	if cols == nil {
		cols = []model.Collection{}
	}
	writeJSON(w, cols)
}

func (s *Server) handleLooks(w http.ResponseWriter, r *http.Request) {
	looks, err := s.Store.ListLooks(r.Context(), r.PathValue("c"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	if looks == nil {
		looks = []model.Look{}
	}
	writeJSON(w, looks)
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	hs, err := s.Store.LoadHotspots(r.Context(), lookKey(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, hs)
}

// handleOverlay renders the SVG overlay of a look for a given rendered box.
// Without w and h the natural size of the look is used.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	key := lookKey(r)
	look, err := s.Store.GetLook(r.Context(), key)
	if err != nil {
		httpError(w, r, err)
		return
	}
	hs, err := s.Store.LoadHotspots(r.Context(), key)
	if err != nil {
		httpError(w, r, err)
		return
	}

	bw, bh := float64(look.Width), float64(look.Height)
	q := r.URL.Query()
	if q.Get("w") != "" || q.Get("h") != "" {
		bw, err = strconv.ParseFloat(q.Get("w"), 64)
		if err != nil {
			http.Error(w, "invalid 'w' parameter", http.StatusBadRequest)
			return
		}
		bh, err = strconv.ParseFloat(q.Get("h"), 64)
		if err != nil {
			http.Error(w, "invalid 'h' parameter", http.StatusBadRequest)
			return
		}
	}

	focus := overlay.NewFocus(false)
	if err := focus.SetHotspots(hs); err != nil {
		httpError(w, r, err)
		return
	}
	if id := q.Get("open"); id != "" {
		focus.Click(id)
	}
	sc, err := overlay.NewScene(hs, focus, bw, bh)
	if err != nil {
		httpError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := overlay.RenderSVG(w, sc); err != nil {
		klog.Errorf("rendering overlay for %s: %v", key, err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, r, err)
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	token, err := s.Auth.Login(auth.ClientAddr(r), req.Email, req.Password)
	if err != nil {
		httpError(w, r, err)
		return
	}
	s.Auth.SetCookie(w, r, token)
	if r.Header.Get("Content-Type") == "application/json" {
		writeJSON(w, map[string]bool{"admin": true})
		return
	}
	http.Redirect(w, r, "/editor", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		s.Auth.Logout(token)
		s.Editors.DropOwner(token)
	}
	auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
