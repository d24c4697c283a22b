// Package catalog imports and exports the whole lookbook as a TOML file.
// Hotspots already present in the store are never overwritten unless the
// import is forced.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
)

// File is the on-disk catalog format.
type File struct {
	Collections []Collection `toml:"collection"`
}

type Collection struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
	Looks []Look `toml:"look"`
}

// Look names its image either by Src (already served somewhere) or by File,
// a local image that is copied into the upload directory on import. Width
// and Height are required with Src and probed with File.
type Look struct {
	ID       string          `toml:"id"`
	Title    string          `toml:"title"`
	Src      string          `toml:"src,omitempty"`
	File     string          `toml:"file,omitempty"`
	Width    int             `toml:"width,omitempty"`
	Height   int             `toml:"height,omitempty"`
	Hotspots []model.Hotspot `toml:"hotspot"`
}

// Store is the persistence the catalog reads and writes.
type Store interface {
	ListCollections(ctx context.Context) ([]model.Collection, error)
	UpsertCollection(ctx context.Context, c model.Collection) error
	ListLooks(ctx context.Context, collection string) ([]model.Look, error)
	AddLook(ctx context.Context, l model.Look) (model.Look, error)
	LoadHotspots(ctx context.Context, key model.LookKey) ([]model.Hotspot, error)
	ReplaceHotspots(ctx context.Context, key model.LookKey, hotspots []model.Hotspot) ([]model.Hotspot, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Uploader stores local look images.
type Uploader interface {
	Save(key model.LookKey, name string, r io.Reader) (media.Stored, error)
}

// Report summarizes an import.
type Report struct {
	Collections int
	Looks       int
	Hotspots    int
	Skipped     int // looks whose existing hotspots were kept
}

// Load reads a catalog file.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &f, nil
}

// Importer writes a catalog file into a store.
type Importer struct {
	Store    Store
	Uploader Uploader
	// BaseDir resolves relative Look.File paths.
	BaseDir string
	Force   bool
}

// Import upserts every collection and look. Hotspots are written only for
// looks that have none yet, or for all looks when Force is set.
func (im *Importer) Import(ctx context.Context, f *File) (Report, error) {
	var rep Report
	for _, c := range f.Collections {
		if err := im.Store.UpsertCollection(ctx, model.Collection{ID: c.ID, Title: c.Title}); err != nil {
			return rep, fmt.Errorf("collection %q: %w", c.ID, err)
		}
		rep.Collections++

		for _, l := range c.Looks {
			key := model.LookKey{Collection: c.ID, Look: l.ID}
			look, err := im.resolveLook(key, l)
			if err != nil {
				return rep, err
			}
			if _, err := im.Store.AddLook(ctx, look); err != nil {
				return rep, fmt.Errorf("look %s: %w", key, err)
			}
			rep.Looks++

			if len(l.Hotspots) == 0 {
				continue
			}
			existing, err := im.Store.LoadHotspots(ctx, key)
			if err != nil {
				return rep, fmt.Errorf("look %s: %w", key, err)
			}
			if len(existing) > 0 && !im.Force {
				klog.V(1).Infof("keeping %d existing hotspots on %s", len(existing), key)
				rep.Skipped++
				continue
			}
			saved, err := im.Store.ReplaceHotspots(ctx, key, l.Hotspots)
			if err != nil {
				return rep, fmt.Errorf("look %s: %w", key, err)
			}
			rep.Hotspots += len(saved)
		}
	}

	if err := im.Store.SetMeta(ctx, "seeded_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return rep, err
	}
	return rep, nil
}

func (im *Importer) resolveLook(key model.LookKey, l Look) (model.Look, error) {
	look := model.Look{CollectionID: key.Collection, ID: key.Look, Title: l.Title, Src: l.Src, Width: l.Width, Height: l.Height}
	if l.File == "" {
		if l.Src == "" || l.Width <= 0 || l.Height <= 0 {
			return look, fmt.Errorf("look %s: src with width and height, or file, is required", key)
		}
		return look, nil
	}
	if im.Uploader == nil {
		return look, fmt.Errorf("look %s: no upload directory for %s", key, l.File)
	}

	p := l.File
	if !filepath.IsAbs(p) {
		p = filepath.Join(im.BaseDir, p)
	}
	fh, err := os.Open(p)
	if err != nil {
		return look, fmt.Errorf("look %s: %w", key, err)
	}
	defer fh.Close()

	st, err := im.Uploader.Save(key, filepath.Base(p), fh)
	if err != nil {
		return look, fmt.Errorf("look %s: %w", key, err)
	}
	look.Src, look.Width, look.Height, look.Variants = st.Src, st.Width, st.Height, st.Variants
	return look, nil
}

// Dump reads the whole catalog back out of a store.
func Dump(ctx context.Context, s Store) (*File, error) {
	cols, err := s.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	f := &File{}
	for _, c := range cols {
		fc := Collection{ID: c.ID, Title: c.Title}
		looks, err := s.ListLooks(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range looks {
			hs, err := s.LoadHotspots(ctx, l.Key())
			if err != nil {
				return nil, err
			}
			fc.Looks = append(fc.Looks, Look{ID: l.ID, Title: l.Title, Src: l.Src, Width: l.Width, Height: l.Height, Hotspots: hs})
		}
		f.Collections = append(f.Collections, fc)
	}
	return f, nil
}

// Write encodes a catalog as TOML.
func Write(w io.Writer, f *File) error {
	return toml.NewEncoder(w).Encode(f)
}
