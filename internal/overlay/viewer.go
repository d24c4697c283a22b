package overlay

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
)

// Loader fetches the persisted hotspots of a look.
type Loader interface {
	LoadHotspots(ctx context.Context, key model.LookKey) ([]model.Hotspot, error)
}

// Viewer holds the hotspots of the currently selected look. Loads are keyed
// by look: a load that finishes after a newer Select is discarded.
type Viewer struct {
	loader Loader

	mu       sync.Mutex
	gen      uint64
	current  model.LookKey
	hotspots []model.Hotspot
	focus    *Focus
}

// NewViewer creates a viewer backed by loader.
func NewViewer(loader Loader, canHover bool) *Viewer {
	return &Viewer{loader: loader, focus: NewFocus(canHover)}
}

// Select makes key the current look and loads its hotspots. The previous
// look's hotspots are cleared immediately so they are never drawn over the
// new image. If another Select starts before this load completes, the result
// is dropped and Select returns nil.
func (v *Viewer) Select(ctx context.Context, key model.LookKey) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.current = key
	v.hotspots = nil
	v.focus.reset()
	v.mu.Unlock()

	hotspots, err := v.loader.LoadHotspots(ctx, key)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		klog.V(2).Infof("dropping hotspots for %s: selection moved to %s", key, v.current)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading hotspots for %s: %w", key, err)
	}
	if err := v.focus.SetHotspots(hotspots); err != nil {
		return fmt.Errorf("loading hotspots for %s: %w", key, err)
	}
	v.hotspots = hotspots
	return nil
}

// Current returns the selected look and its loaded hotspots.
func (v *Viewer) Current() (model.LookKey, []model.Hotspot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.Hotspot, len(v.hotspots))
	copy(out, v.hotspots)
	return v.current, out
}

// Interact runs fn against the focus state of the current look.
func (v *Viewer) Interact(fn func(*Focus)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.focus)
}

// Scene lays out the current look in a w x h box.
func (v *Viewer) Scene(w, h float64) (Scene, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return NewScene(v.hotspots, v.focus, w, h)
}
