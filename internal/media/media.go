// Package media stores uploaded look images and prepares their display
// variants.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
)

// URLPrefix is where the web server exposes the upload directory.
const URLPrefix = "/uploads/"

// ErrTooLarge is returned for uploads over the size limit.
var ErrTooLarge = errors.New("upload too large")

// Processor writes look images under Dir.
type Processor struct {
	Dir      string
	Widths   []int
	Quality  int
	MaxBytes int64
}

// Stored describes a saved look image.
type Stored struct {
	Src      string
	Width    int
	Height   int
	Variants map[string]string
}

// Save stores an uploaded image for a look at looks/<collection>/<look>_<name>,
// records its natural size and writes a WebP variant for every configured
// width narrower than the image.
func (p *Processor) Save(key model.LookKey, name string, r io.Reader) (Stored, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Stored{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > limit {
		return Stored{}, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrTooLarge, limit)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Stored{}, fmt.Errorf("decoding %s: %w", name, err)
	}

	rel := path.Join("looks", safeName(key.Collection), safeName(key.Look)+"_"+safeName(name))
	if err := p.write(rel, data); err != nil {
		return Stored{}, err
	}

	b := img.Bounds()
	st := Stored{
		Src:      URLPrefix + rel,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Variants: map[string]string{},
	}
	for _, w := range p.Widths {
		if w >= st.Width {
			continue
		}
		vrel := path.Join("looks", safeName(key.Collection), safeName(key.Look)+"_"+strconv.Itoa(w)+".webp")
		if err := p.writeVariant(vrel, img, w); err != nil {
			return st, err
		}
		st.Variants[strconv.Itoa(w)] = URLPrefix + vrel
	}
	klog.V(1).Infof("stored %s (%dx%d, %d variants)", st.Src, st.Width, st.Height, len(st.Variants))
	return st, nil
}

func (p *Processor) write(rel string, data []byte) error {
	full := filepath.Join(p.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

func (p *Processor) writeVariant(rel string, img image.Image, width int) error {
	resized := imaging.Resize(img, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: float32(p.quality())}); err != nil {
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	return p.write(rel, buf.Bytes())
}

func (p *Processor) quality() int {
	if p.Quality <= 0 {
		return 85
	}
	return p.Quality
}

// Remove deletes the files of a look that live in the upload directory.
// Sources outside it are left alone.
func (p *Processor) Remove(l model.Look) {
	urls := []string{l.Src}
	for _, v := range l.Variants {
		urls = append(urls, v)
	}
	for _, u := range urls {
		full, ok := p.Path(u)
		if !ok {
			continue
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			klog.Warningf("removing %s: %v", full, err)
		}
	}
}

// Path maps an upload URL to its file, refusing anything that escapes Dir.
func (p *Processor) Path(url string) (string, bool) {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return "", false
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", false
	}
	return filepath.Join(p.Dir, filepath.FromSlash(clean)), true
}

// Probe returns the natural size of an image file.
func Probe(file string) (width, height int, err error) {
	img, err := imaging.Open(file, imaging.AutoOrientation(true))
	if err != nil {
		f, ferr := os.Open(file)
		if ferr != nil {
			return 0, 0, ferr
		}
		defer f.Close()
		img, err = webp.Decode(f)
		if err != nil {
			return 0, 0, fmt.Errorf("image: unknown format for %s", file)
		}
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func safeName(s string) string {
	s = filepath.Base(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "image"
	}
	return out
}
