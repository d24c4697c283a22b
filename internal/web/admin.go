package web

import (
	"fmt"
	"net/http"
	"strings"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/catalog"
	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/scraper"
)

// Defaults for metadata the admin leaves empty when saving a shape.
const (
	defaultHotspotTitle = "New hotspot"
	defaultHotspotURL   = "#"
)

func withDefaults(h model.Hotspot) model.Hotspot {
	h.Title = strings.TrimSpace(h.Title)
	h.URL = strings.TrimSpace(h.URL)
	if h.Title == "" {
		h.Title = defaultHotspotTitle
	}
	if h.URL == "" {
		h.URL = defaultHotspotURL
	}
	return h
}

func (s *Server) handleUpsertCollection(w http.ResponseWriter, r *http.Request) {
	var c model.Collection
	if err := decodeJSON(r, &c); err != nil {
		httpError(w, r, err)
		return
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" || strings.ContainsAny(c.ID, "/?#") {
		httpError(w, r, fmt.Errorf("%w: invalid collection id %q", errBadRequest, c.ID))
		return
	}
	if err := s.Store.UpsertCollection(r.Context(), c); err != nil {
		httpError(w, r, err)
		return
	}
	got, err := s.Store.GetCollection(r.Context(), c.ID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, got)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("c")
	looks, err := s.Store.ListLooks(r.Context(), id)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if err := s.Store.DeleteCollection(r.Context(), id); err != nil {
		httpError(w, r, err)
		return
	}
	if s.Media != nil {
		for _, l := range looks {
			s.Media.Remove(l)
		}
	}
	klog.Infof("deleted collection %q with %d looks", id, len(looks))
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadLook accepts a multipart form with fields id, title and file.
func (s *Server) handleUploadLook(w http.ResponseWriter, r *http.Request) {
	if s.Media == nil {
		http.Error(w, "uploads are disabled", http.StatusNotImplemented)
		return
	}
	collection := r.PathValue("c")
	if _, err := s.Store.GetCollection(r.Context(), collection); err != nil {
		httpError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.Media.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpError(w, r, fmt.Errorf("%w: parsing upload: %v", errBadRequest, err))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		httpError(w, r, fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		id = catalog.Slug(hdr.Filename)
	}
	key := model.LookKey{Collection: collection, Look: id}
	if !key.Valid() || strings.ContainsAny(id, "/?#") {
		httpError(w, r, fmt.Errorf("%w: invalid look id %q", errBadRequest, id))
		return
	}

	st, err := s.Media.Save(key, hdr.Filename, file)
	if err != nil {
		httpError(w, r, err)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = catalog.DisplayName(id)
	}
	look, err := s.Store.AddLook(r.Context(), model.Look{
		CollectionID: collection,
		ID:           id,
		Title:        title,
		Src:          st.Src,
		Width:        st.Width,
		Height:       st.Height,
		Variants:     st.Variants,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	klog.Infof("uploaded look %s (%dx%d)", key, look.Width, look.Height)
	writeJSONStatus(w, http.StatusCreated, look)
}

func (s *Server) handleDeleteLook(w http.ResponseWriter, r *http.Request) {
	key := lookKey(r)
	look, err := s.Store.GetLook(r.Context(), key)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if err := s.Store.DeleteLook(r.Context(), key); err != nil {
		httpError(w, r, err)
		return
	}
	if s.Media != nil {
		s.Media.Remove(look)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateHotspot saves a shape exported on the client together with its
// metadata.
func (s *Server) handleCreateHotspot(w http.ResponseWriter, r *http.Request) {
	var h model.Hotspot
	if err := decodeJSON(r, &h); err != nil {
		httpError(w, r, err)
		return
	}
	saved, err := s.Store.SaveHotspot(r.Context(), lookKey(r), withDefaults(h))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateHotspot(w http.ResponseWriter, r *http.Request) {
	var h model.Hotspot
	if err := decodeJSON(r, &h); err != nil {
		httpError(w, r, err)
		return
	}
	h.ID = r.PathValue("id")
	saved, err := s.Store.SaveHotspot(r.Context(), lookKey(r), withDefaults(h))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, saved)
}

func (s *Server) handleReplaceHotspots(w http.ResponseWriter, r *http.Request) {
	var hs []model.Hotspot
	if err := decodeJSON(r, &hs); err != nil {
		httpError(w, r, err)
		return
	}
	for i := range hs {
		hs[i] = withDefaults(hs[i])
	}
	saved, err := s.Store.ReplaceHotspots(r.Context(), lookKey(r), hs)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, saved)
}

func (s *Server) handleDeleteHotspot(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteHotspot(r.Context(), lookKey(r), r.PathValue("id")); err != nil {
		httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type productResponse struct {
	model.Product
	DisplayPrice string `json:"display_price"`
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	if s.Products == nil {
		http.Error(w, "product lookup is disabled", http.StatusNotImplemented)
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	p, err := s.Products.FetchProduct(r.Context(), req.URL)
	if err != nil {
		klog.Warningf("product lookup for %q: %v", req.URL, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, productResponse{Product: p, DisplayPrice: scraper.DisplayPrice(p)})
}
