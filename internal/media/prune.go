package media

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
)

// Referenced returns the upload URLs used by looks: sources and variants.
func Referenced(looks []model.Look) map[string]bool {
	refs := make(map[string]bool, len(looks))
	for _, l := range looks {
		refs[l.Src] = true
		for _, v := range l.Variants {
			refs[v] = true
		}
	}
	return refs
}

// Orphans lists files under Dir whose upload URL is not in refs. Dot files
// and directories are skipped. A missing Dir has no orphans.
func (p *Processor) Orphans(refs map[string]bool) ([]string, error) {
	if _, err := os.Stat(p.Dir); os.IsNotExist(err) {
		return nil, nil
	}
	var orphans []string
	err := godirwalk.Walk(p.Dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != p.Dir && filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(p.Dir, path)
			if err != nil {
				return err
			}
			if !refs[URLPrefix+filepath.ToSlash(rel)] {
				orphans = append(orphans, path)
			}
			return nil
		},
	})
	return orphans, err
}

// Prune deletes the given files, returning how many were removed.
func Prune(files []string) int {
	n := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			klog.Warningf("pruning %s: %v", f, err)
			continue
		}
		n++
	}
	return n
}
