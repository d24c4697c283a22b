package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func() error {
			reloads <- struct{}{}
			return nil
		})
	}()

	// Keep touching the file until the watcher is up and reports it.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for waiting := true; waiting; {
		select {
		case <-reloads:
			waiting = false
		case <-tick.C:
			if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no reload after writing the catalog")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	calls := 0
	go func() {
		for i := 0; i < 5; i++ {
			os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0o644)
			time.Sleep(20 * time.Millisecond)
		}
	}()
	if err := Watch(ctx, path, 10*time.Millisecond, func() error { calls++; return nil }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no reloads, got %d", calls)
	}
}
