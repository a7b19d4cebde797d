// Package registry discovers packaged handlers in a model store directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"handlerd/internal/common/fsutil"
	"handlerd/internal/manifest"
)

// Entry is one packaged handler found in the store.
type Entry struct {
	// Dir is the absolute package directory.
	Dir      string
	Manifest manifest.Manifest
}

// LoadDir scans dir for packaged handlers: dir itself and each immediate
// subdirectory holding MAR-INF/MANIFEST.json. Entries are sorted by model name;
// a malformed manifest or a duplicate model name fails the whole scan.
func LoadDir(dir string) ([]Entry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	candidates := []string{abs}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == manifest.Dir {
			continue
		}
		candidates = append(candidates, filepath.Join(abs, e.Name()))
	}

	var out []Entry
	seen := make(map[string]string)
	for _, d := range candidates {
		p := manifest.Path(d)
		if !fsutil.IsFile(p) {
			continue
		}
		mf, err := manifest.ReadFile(p)
		if err != nil {
			return nil, err
		}
		name := mf.Model.ModelName()
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate model %q in %s and %s", name, prev, d)
		}
		seen[name] = d
		out = append(out, Entry{Dir: d, Manifest: mf})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Manifest.Model.ModelName() < out[j].Manifest.Model.ModelName()
	})
	return out, nil
}

// Find returns the entry whose model name is name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Manifest.Model.ModelName() == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Models returns the model value objects of entries, in order.
func Models(entries []Entry) []manifest.Model {
	out := make([]manifest.Model, len(entries))
	for i, e := range entries {
		out[i] = e.Manifest.Model
	}
	return out
}
