package catalog

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/store"
)

const sampleCatalog = `
[[collection]]
id = "spring25"
title = "Spring 2025"

  [[collection.look]]
  id = "s25_01"
  title = "Look 1"
  src = "/assets/spring25/01.png"
  width = 1000
  height = 1500

    [[collection.look.hotspot]]
    id = "coat"
    points = "100,100 900,100 900,900 100,900"
    title = "Wool coat"
    brand = "Overo"
    price = "899 PLN"
    url = "https://shop.example/coat"

  [[collection.look]]
  id = "s25_02"
  title = "Look 2"
  file = "02.png"
`

func setup(t *testing.T) (*store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 450))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "02.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog.toml"), []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func importer(s *store.Store, dir string, force bool) *Importer {
	return &Importer{
		Store:    s,
		Uploader: &media.Processor{Dir: filepath.Join(dir, "uploads"), Widths: []int{480}},
		BaseDir:  dir,
		Force:    force,
	}
}

func TestImport(t *testing.T) {
	s, dir := setup(t)
	ctx := context.Background()

	f, err := Load(filepath.Join(dir, "catalog.toml"))
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	rep, err := importer(s, dir, false).Import(ctx, f)
	if err != nil {
		t.Fatalf("importing: %v", err)
	}
	if rep.Collections != 1 || rep.Looks != 2 || rep.Hotspots != 1 {
		t.Errorf("unexpected report %+v", rep)
	}

	l, err := s.GetLook(ctx, model.LookKey{Collection: "spring25", Look: "s25_02"})
	if err != nil {
		t.Fatalf("getting look: %v", err)
	}
	if l.Width != 300 || l.Height != 450 {
		t.Errorf("expected probed 300x450, got %dx%d", l.Width, l.Height)
	}
	if !strings.HasPrefix(l.Src, media.URLPrefix) {
		t.Errorf("expected uploaded src, got %q", l.Src)
	}
	if seeded, _ := s.Meta(ctx, "seeded_at"); seeded == "" {
		t.Error("seeded_at not recorded")
	}
}

func TestImportKeepsExistingHotspots(t *testing.T) {
	s, dir := setup(t)
	ctx := context.Background()
	key := model.LookKey{Collection: "spring25", Look: "s25_01"}

	f, err := Load(filepath.Join(dir, "catalog.toml"))
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if _, err := importer(s, dir, false).Import(ctx, f); err != nil {
		t.Fatalf("importing: %v", err)
	}
	if _, err := s.SaveHotspot(ctx, key, model.Hotspot{ID: "coat", Points: "0,0 500,0 500,500", Title: "Edited"}); err != nil {
		t.Fatalf("editing: %v", err)
	}

	rep, err := importer(s, dir, false).Import(ctx, f)
	if err != nil {
		t.Fatalf("reimporting: %v", err)
	}
	if rep.Skipped != 1 || rep.Hotspots != 0 {
		t.Errorf("unexpected report %+v", rep)
	}
	hs, _ := s.LoadHotspots(ctx, key)
	if len(hs) != 1 || hs[0].Title != "Edited" {
		t.Errorf("edited hotspot overwritten: %+v", hs)
	}

	if _, err := importer(s, dir, true).Import(ctx, f); err != nil {
		t.Fatalf("forced import: %v", err)
	}
	hs, _ = s.LoadHotspots(ctx, key)
	if len(hs) != 1 || hs[0].Title != "Wool coat" {
		t.Errorf("forced import did not replace hotspots: %+v", hs)
	}
}

func TestImportRequiresSize(t *testing.T) {
	s, dir := setup(t)
	f := &File{Collections: []Collection{{ID: "c", Looks: []Look{{ID: "l", Src: "/x.jpg"}}}}}
	if _, err := importer(s, dir, false).Import(context.Background(), f); err == nil {
		t.Fatal("expected error for look without size")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	s, dir := setup(t)
	ctx := context.Background()

	f, err := Load(filepath.Join(dir, "catalog.toml"))
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if _, err := importer(s, dir, false).Import(ctx, f); err != nil {
		t.Fatalf("importing: %v", err)
	}

	dumped, err := Dump(ctx, s)
	if err != nil {
		t.Fatalf("dumping: %v", err)
	}
	out := filepath.Join(dir, "dump.toml")
	fh, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(fh, dumped); err != nil {
		t.Fatalf("writing: %v", err)
	}
	fh.Close()

	back, err := Load(out)
	if err != nil {
		t.Fatalf("reloading dump: %v", err)
	}
	if len(back.Collections) != 1 || len(back.Collections[0].Looks) != 2 {
		t.Fatalf("unexpected dump %+v", back)
	}
	first := back.Collections[0].Looks[0]
	if first.Width != 1000 || len(first.Hotspots) != 1 || first.Hotspots[0].Points != "100,100 900,100 900,900 100,900" {
		t.Errorf("unexpected first look %+v", first)
	}
}
