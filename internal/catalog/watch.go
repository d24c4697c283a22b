package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// Watch calls fn each time the file at path is written, created or renamed
// into place, until ctx is done. The parent directory is watched so editors
// that replace the file on save are noticed. Bursts of events within settle
// collapse into one call.
func Watch(ctx context.Context, path string, settle time.Duration, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	klog.Infof("watching %s for changes", abs)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				klog.V(1).Infof("catalog event: %s", event)
				fire = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Warningf("watch error: %v", err)
		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				klog.Errorf("reloading %s: %v", abs, err)
			}
		}
	}
}
