package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/bcrypt"

	"github.com/przemekoduje/overo/internal/annotate"
	"github.com/przemekoduje/overo/internal/auth"
	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/store"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "hunter22"
)

var testKey = model.LookKey{Collection: "spring25", Look: "look1"}

type fakeProducts struct {
	product model.Product
	err     error
}

func (f fakeProducts) FetchProduct(ctx context.Context, url string) (model.Product, error) {
	if f.err != nil {
		return model.Product{}, f.err
	}
	p := f.product
	p.URL = url
	return p, nil
}

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "overo-web-test-"+t.Name())
	os.RemoveAll(dir)
	t.Cleanup(func() { os.RemoveAll(dir) })

	s, err := store.New(dir)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	srv := &Server{
		Store:    s,
		Auth:     auth.New(testEmail, string(hash), time.Hour, 100),
		Media:    &media.Processor{Dir: filepath.Join(dir, "uploads"), Widths: []int{480}, Quality: 80, MaxBytes: 1 << 20},
		Products: fakeProducts{product: model.Product{Title: "Wool coat", Brand: "Overo", Price: "899", Currency: "PLN"}},
		Editors:  annotate.NewRegistry(time.Hour),
		Addr:     "localhost:0",
	}
	h, err := srv.Handler()
	if err != nil {
		t.Fatalf("building handler: %v", err)
	}
	return srv, h
}

// seed adds one collection with a 1000x1500 look and a full-frame hotspot.
func seed(t *testing.T, srv *Server) {
	t.Helper()
	ctx := context.Background()
	if err := srv.Store.UpsertCollection(ctx, model.Collection{ID: "spring25", Title: "Spring 25"}); err != nil {
		t.Fatalf("creating collection: %v", err)
	}
	_, err := srv.Store.AddLook(ctx, model.Look{CollectionID: "spring25", ID: "look1", Title: "Look 1", Src: "/uploads/looks/spring25/look1.jpg", Width: 1000, Height: 1500})
	if err != nil {
		t.Fatalf("adding look: %v", err)
	}
	_, err = srv.Store.SaveHotspot(ctx, testKey, model.Hotspot{ID: "coat", Points: "0,0 1000,0 1000,1000 0,1000", Title: "Wool coat", Brand: "Overo", Price: "899 PLN", URL: "https://shop.example/coat"})
	if err != nil {
		t.Fatalf("saving hotspot: %v", err)
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := do(t, h, "POST", "/api/login", loginRequest{Email: testEmail, Password: testPassword}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestHandleCollectionsEmpty(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, "GET", "/api/collections", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestHandleHotspots(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	w := do(t, h, "GET", "/api/looks/spring25/look1/hotspots", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var hs []model.Hotspot
	if err := json.NewDecoder(w.Body).Decode(&hs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(hs) != 1 || hs[0].ID != "coat" {
		t.Fatalf("unexpected hotspots %+v", hs)
	}
	if hs[0].Points != "0,0 1000,0 1000,1000 0,1000" {
		t.Errorf("unexpected points %q", hs[0].Points)
	}
}

func TestHandleHotspotsUnknownLook(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	w := do(t, h, "GET", "/api/looks/spring25/nope/hotspots", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestHandleOverlay(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	w := do(t, h, "GET", "/api/looks/spring25/look1/overlay?w=400&h=300&open=coat", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("unexpected content type %q", ct)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parsing svg: %v", err)
	}
	active := doc.Find("g.poly.is-active")
	if id, _ := active.Attr("data-id"); id != "coat" {
		t.Fatalf("expected coat open, got %q", id)
	}
	if pts, _ := active.Find("polygon").Attr("points"); pts != "0,0 400,0 400,300 0,300" {
		t.Errorf("unexpected points %q", pts)
	}
}

func TestHandleOverlayBadSize(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	if w := do(t, h, "GET", "/api/looks/spring25/look1/overlay?w=abc&h=300", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad width, got %d", w.Code)
	}
	if w := do(t, h, "GET", "/api/looks/spring25/look1/overlay?w=0&h=300", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty box, got %d", w.Code)
	}
	if w := do(t, h, "GET", "/api/looks/spring25/nope/overlay", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown look, got %d", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	w := do(t, h, "GET", "/?c=spring25&look=look1&open=coat", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parsing page: %v", err)
	}
	if n := doc.Find(".lookbook g.poly").Length(); n != 1 {
		t.Errorf("expected 1 hotspot shape, got %d", n)
	}
	card := doc.Find(".tooltip__card")
	if card.Length() != 1 {
		t.Fatalf("expected an open popover")
	}
	if title := card.Find(".tooltip__title").Text(); title != "Wool coat" {
		t.Errorf("unexpected popover title %q", title)
	}
	if href, _ := card.Find("a.btn").First().Attr("href"); href != "https://shop.example/coat" {
		t.Errorf("unexpected buy link %q", href)
	}
	// The open hotspot's link closes it.
	if href, _ := doc.Find(".hotspot-list a.is-active").Attr("href"); href != "/?c=spring25&look=look1" {
		t.Errorf("unexpected toggle link %q", href)
	}
}

func TestIndexPageEmpty(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, "GET", "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No collections yet.") {
		t.Error("expected empty state")
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)

	if w := do(t, h, "POST", "/api/admin/collections", model.Collection{ID: "fall25"}, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", w.Code)
	}

	cookie := login(t, h)
	w := do(t, h, "POST", "/api/admin/collections", model.Collection{ID: "fall25", Title: "Fall 25"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d: %s", w.Code, w.Body.String())
	}

	do(t, h, "POST", "/api/logout", nil, cookie)
	if w := do(t, h, "POST", "/api/admin/collections", model.Collection{ID: "x"}, cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", w.Code)
	}
}

func TestLoginBadPassword(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, "POST", "/api/login", loginRequest{Email: testEmail, Password: "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestEditorPageShowsLogin(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, "GET", "/editor", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func editorPost(t *testing.T, h http.Handler, cookie *http.Cookie, req editorRequest) (int, editorState) {
	t.Helper()
	w := do(t, h, "POST", "/api/admin/looks/spring25/look1/editor", req, cookie)
	var st editorState
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decoding editor state (status %d): %v", w.Code, err)
	}
	return w.Code, st
}

// A 1000x1500 look drawn at half size: client coordinates double into
// natural space.
var editorBox = &geometry.Box{Left: 0, Top: 0, W: 500, H: 750}

func TestEditorDrawAndExport(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	code, st := editorPost(t, h, cookie, editorRequest{Commands: []annotate.Command{
		{Op: "load", Box: editorBox},
		{Op: "click", X: 50, Y: 50},
		{Op: "click", X: 450, Y: 50},
		{Op: "click", X: 250, Y: 400},
	}})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, st.Error)
	}
	if st.Snapshot.State != "building" || len(st.Snapshot.Vertices) != 3 {
		t.Fatalf("unexpected snapshot %+v", st.Snapshot)
	}
	if st.Snapshot.Vertices[1] != [2]float64{900, 100} {
		t.Errorf("unexpected natural vertex %v", st.Snapshot.Vertices[1])
	}
	if !st.Snapshot.CanClose || st.Snapshot.CanExport {
		t.Errorf("expected closable but not exportable, got %+v", st.Snapshot)
	}

	code, st = editorPost(t, h, cookie, editorRequest{
		Commands: []annotate.Command{{Op: "close"}, {Op: "export"}},
		Hotspot:  model.Hotspot{Title: "Silk scarf", Brand: "Overo", URL: "https://shop.example/scarf"},
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, st.Error)
	}
	if st.Hotspot == nil {
		t.Fatal("expected saved hotspot in response")
	}
	if st.Hotspot.Points != "100,67 900,67 500,533" {
		t.Errorf("unexpected normalized points %q", st.Hotspot.Points)
	}
	if st.Snapshot.State != "empty" {
		t.Errorf("expected session reset after export, got %s", st.Snapshot.State)
	}
	if len(st.Saved) != 2 {
		t.Errorf("expected 2 saved shapes, got %d", len(st.Saved))
	}

	hs, err := srv.Store.LoadHotspots(context.Background(), testKey)
	if err != nil {
		t.Fatalf("loading hotspots: %v", err)
	}
	if len(hs) != 2 || hs[1].Title != "Silk scarf" {
		t.Errorf("unexpected stored hotspots %+v", hs)
	}
}

func TestEditorExportOpenShape(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	code, st := editorPost(t, h, cookie, editorRequest{Commands: []annotate.Command{
		{Op: "load", Box: editorBox},
		{Op: "click", X: 50, Y: 50},
		{Op: "click", X: 450, Y: 50},
		{Op: "click", X: 250, Y: 400},
		{Op: "export"},
	}})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if st.Error == "" {
		t.Error("expected an error message")
	}
	if st.Snapshot.State != "building" || len(st.Snapshot.Vertices) != 3 {
		t.Errorf("candidate should survive a failed export, got %+v", st.Snapshot)
	}
}

func TestEditorClickBeforeLoad(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	code, _ := editorPost(t, h, cookie, editorRequest{Commands: []annotate.Command{{Op: "click", X: 10, Y: 10}}})
	if code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestEditorUnknownOp(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	code, _ := editorPost(t, h, cookie, editorRequest{Commands: []annotate.Command{{Op: "explode"}}})
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestEditorState(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	w := do(t, h, "GET", "/api/admin/looks/spring25/look1/editor", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st editorState
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(st.Saved) != 1 {
		t.Fatalf("expected 1 saved shape, got %d", len(st.Saved))
	}
	// Saved shapes are drawn in natural space.
	if st.Saved[0].Points != "0,0 1000,0 1000,1500 0,1500" {
		t.Errorf("unexpected natural points %q", st.Saved[0].Points)
	}
}

func TestCreateHotspotDefaults(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	w := do(t, h, "POST", "/api/admin/looks/spring25/look1/hotspots", model.Hotspot{Points: "10,10 20,10 20,20"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got model.Hotspot
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.ID == "" || got.Title != "New hotspot" || got.URL != "#" {
		t.Errorf("unexpected defaults %+v", got)
	}

	w = do(t, h, "POST", "/api/admin/looks/spring25/look1/hotspots", model.Hotspot{Points: "10,10 20,10"}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for two points, got %d", w.Code)
	}
}

func TestUploadLook(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, x%48, color.RGBA{R: 200, A: 255})
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "red-coat.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if err := png.Encode(fw, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/admin/collections/spring25/looks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var look model.Look
	if err := json.NewDecoder(w.Body).Decode(&look); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if look.ID != "red-coat" || look.Title != "Red Coat" {
		t.Errorf("unexpected id/title %q/%q", look.ID, look.Title)
	}
	if look.Width != 64 || look.Height != 48 {
		t.Errorf("unexpected size %dx%d", look.Width, look.Height)
	}
	if look.Position != 2 {
		t.Errorf("expected position 2 after the seeded look, got %d", look.Position)
	}

	// The stored image is served back.
	if w := do(t, h, "GET", look.Src, nil, nil); w.Code != http.StatusOK {
		t.Errorf("expected uploaded image at %s, got %d", look.Src, w.Code)
	}
}

func TestDeleteHotspot(t *testing.T) {
	srv, h := testServer(t)
	seed(t, srv)
	cookie := login(t, h)

	if w := do(t, h, "DELETE", "/api/admin/looks/spring25/look1/hotspots/coat", nil, cookie); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(t, h, "DELETE", "/api/admin/looks/spring25/look1/hotspots/coat", nil, cookie); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestHandleProduct(t *testing.T) {
	srv, h := testServer(t)
	cookie := login(t, h)

	w := do(t, h, "POST", "/api/admin/product", map[string]string{"url": "https://shop.example/coat"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got productResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.Title != "Wool coat" || got.DisplayPrice != "899 PLN" {
		t.Errorf("unexpected product %+v", got)
	}

	srv.Products = fakeProducts{err: errors.New("connection refused")}
	if w := do(t, h, "POST", "/api/admin/product", map[string]string{"url": "https://shop.example/x"}, cookie); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestWriteJSONNil(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, nil)
	if got := w.Body.String(); got != "[]" {
		t.Errorf("expected [], got %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("look a/b: %w", store.ErrNotFound), http.StatusNotFound},
		{geometry.ErrOutOfRange, http.StatusBadRequest},
		{annotate.ErrNotClosed, http.StatusBadRequest},
		{fmt.Errorf("%w %q", store.ErrDuplicateID, "coat"), http.StatusBadRequest},
		{annotate.ErrNotLoaded, http.StatusConflict},
		{media.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{auth.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
