package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/overlay"
)

// hotspotLink lets the lookbook work without JavaScript: each hotspot is also
// a link that toggles it open through ?open=.
type hotspotLink struct {
	ID    string
	Label string
	Href  string
	Open  bool
}

type indexPage struct {
	Collections []model.Collection
	Active      string
	Looks       []model.Look
	Look        *model.Look
	Overlay     template.HTML
	Popover     *overlay.Popover
	Hotspots    []hotspotLink
	IsAdmin     bool
}

func pageURL(collection, look, open string) string {
	q := url.Values{}
	if collection != "" {
		q.Set("c", collection)
	}
	if look != "" {
		q.Set("look", look)
	}
	if open != "" {
		q.Set("open", open)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func pageFuncs() template.FuncMap {
	return template.FuncMap{
		"PageURL": pageURL,
		"Srcset": func(l *model.Look) string {
			widths := make([]int, 0, len(l.Variants))
			for k := range l.Variants {
				if w, err := strconv.Atoi(k); err == nil {
					widths = append(widths, w)
				}
			}
			sort.Ints(widths)
			parts := make([]string, 0, len(widths)+1)
			for _, w := range widths {
				parts = append(parts, fmt.Sprintf("%s %dw", l.Variants[strconv.Itoa(w)], w))
			}
			parts = append(parts, fmt.Sprintf("%s %dw", l.Src, l.Width))
			return strings.Join(parts, ", ")
		},
		"Pct": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 3, 64) + "%"
		},
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	cols, err := s.Store.ListCollections(ctx)
	if err != nil {
		httpError(w, r, err)
		return
	}
	data := indexPage{Collections: cols, IsAdmin: s.Auth.IsAdmin(r)}
	if len(cols) > 0 {
		data.Active = cols[0].ID
		for _, c := range cols {
			if c.ID == q.Get("c") {
				data.Active = c.ID
			}
		}
	}

	if data.Active != "" {
		if data.Looks, err = s.Store.ListLooks(ctx, data.Active); err != nil {
			httpError(w, r, err)
			return
		}
	}
	if len(data.Looks) > 0 {
		data.Look = &data.Looks[0]
		for i := range data.Looks {
			if data.Looks[i].ID == q.Get("look") {
				data.Look = &data.Looks[i]
			}
		}
	}

	if data.Look != nil {
		if err := s.fillOverlay(r, &data, q.Get("open")); err != nil {
			httpError(w, r, err)
			return
		}
	}
	s.render(w, http.StatusOK, "index.html", data)
}

// fillOverlay renders the look's overlay in its natural box; the SVG scales
// with the image because aspect ratio is not preserved.
func (s *Server) fillOverlay(r *http.Request, data *indexPage, open string) error {
	look := data.Look
	hs, err := s.Store.LoadHotspots(r.Context(), look.Key())
	if err != nil {
		return err
	}
	focus := overlay.NewFocus(false)
	if err := focus.SetHotspots(hs); err != nil {
		return err
	}
	if open != "" {
		focus.Click(open)
	}
	sc, err := overlay.NewScene(hs, focus, float64(look.Width), float64(look.Height))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := overlay.RenderSVG(&buf, sc); err != nil {
		return err
	}
	data.Overlay = template.HTML(buf.String())
	data.Popover = sc.Popover

	for _, h := range hs {
		l := hotspotLink{ID: h.ID, Label: overlay.Label(h), Open: focus.IsOpen(h.ID)}
		if l.Open {
			l.Href = pageURL(data.Active, look.ID, "")
		} else {
			l.Href = pageURL(data.Active, look.ID, h.ID)
		}
		data.Hotspots = append(data.Hotspots, l)
	}
	return nil
}

type editorPage struct {
	Collections []model.Collection
	Active      string
	Looks       []model.Look
	Look        *model.Look
}

func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	if !s.Auth.IsAdmin(r) {
		s.render(w, http.StatusUnauthorized, "login.html", nil)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	cols, err := s.Store.ListCollections(ctx)
	if err != nil {
		httpError(w, r, err)
		return
	}
	data := editorPage{Collections: cols, Active: q.Get("c")}
	if data.Active == "" && len(cols) > 0 {
		data.Active = cols[0].ID
	}
	if data.Active != "" {
		if data.Looks, err = s.Store.ListLooks(ctx, data.Active); err != nil {
			httpError(w, r, err)
			return
		}
	}
	for i := range data.Looks {
		if data.Looks[i].ID == q.Get("look") || (q.Get("look") == "" && i == 0) {
			data.Look = &data.Looks[i]
		}
	}
	s.render(w, http.StatusOK, "editor.html", data)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		klog.Errorf("rendering %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
