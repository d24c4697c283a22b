package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/annotate"
	"github.com/przemekoduje/overo/internal/auth"
	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/store"
)

//go:embed all:static
var staticFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

// ProductFetcher prefills hotspot metadata from a shop page.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, url string) (model.Product, error)
}

// Server serves the public lookbook, its JSON API and the admin editor.
type Server struct {
	Store    *store.Store
	Auth     *auth.Authenticator
	Media    *media.Processor
	Products ProductFetcher
	Editors  *annotate.Registry
	Addr     string

	pages *template.Template
}

// Handler builds the route table.
func (s *Server) Handler() (http.Handler, error) {
	if s.pages == nil {
		t, err := template.New("pages").Funcs(pageFuncs()).ParseFS(templateFS, "templates/*.html")
		if err != nil {
			return nil, fmt.Errorf("parsing templates: %w", err)
		}
		s.pages = t
	}

	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /editor", s.handleEditorPage)

	// Public API
	mux.HandleFunc("GET /api/collections", s.handleCollections)
	mux.HandleFunc("GET /api/collections/{c}/looks", s.handleLooks)
	mux.HandleFunc("GET /api/looks/{c}/{l}/hotspots", s.handleHotspots)
	mux.HandleFunc("GET /api/looks/{c}/{l}/overlay", s.handleOverlay)

	// Session
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	// Admin API
	admin := http.NewServeMux()
	admin.HandleFunc("POST /api/admin/collections", s.handleUpsertCollection)
	admin.HandleFunc("DELETE /api/admin/collections/{c}", s.handleDeleteCollection)
	admin.HandleFunc("POST /api/admin/collections/{c}/looks", s.handleUploadLook)
	admin.HandleFunc("DELETE /api/admin/looks/{c}/{l}", s.handleDeleteLook)
	admin.HandleFunc("GET /api/admin/looks/{c}/{l}/editor", s.handleEditorState)
	admin.HandleFunc("POST /api/admin/looks/{c}/{l}/editor", s.handleEditorCommands)
	admin.HandleFunc("POST /api/admin/looks/{c}/{l}/hotspots", s.handleCreateHotspot)
	admin.HandleFunc("PUT /api/admin/looks/{c}/{l}/hotspots", s.handleReplaceHotspots)
	admin.HandleFunc("PUT /api/admin/looks/{c}/{l}/hotspots/{id}", s.handleUpdateHotspot)
	admin.HandleFunc("DELETE /api/admin/looks/{c}/{l}/hotspots/{id}", s.handleDeleteHotspot)
	admin.HandleFunc("POST /api/admin/product", s.handleProduct)
	mux.Handle("/api/admin/", s.Auth.Require(admin))

	// Uploaded images
	if s.Media != nil {
		mux.Handle("GET "+media.URLPrefix, http.StripPrefix(media.URLPrefix, http.FileServer(http.Dir(s.Media.Dir))))
	}

	// Static files
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating sub filesystem: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	return logRequests(mux), nil
}

// ListenAndServe starts the HTTP server and the background sweeper for idle
// editor and login sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}
	go s.sweep(ctx, time.Minute)

	srv := &http.Server{Addr: s.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	klog.Infof("Serving at http://%s", s.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Editors.Sweep()
			s.Auth.Sweep()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		klog.V(1).Infof("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
