package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout of a platform catalog definition:
//
//	modules:
//	  - slug: cms
//	    order: 10
//	    icon: file-text
//	    name: {en: Content}
//	    actions:
//	      - slug: view
//	        name: {en: View}
type file struct {
	Modules []Module `yaml:"modules"`
}

// LoadYAML decodes a catalog definition. Slugs are normalized and fresh IDs
// are assigned; duplicate module or action slugs are rejected.
func LoadYAML(r io.Reader) ([]Module, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Modules))
	for i := range f.Modules {
		m := &f.Modules[i]
		m.Normalize()
		if m.Slug == "" {
			return nil, fmt.Errorf("catalog: module %d: slug is required", i)
		}
		if _, dup := seen[m.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate module slug %q", m.Slug)
		}
		seen[m.Slug] = struct{}{}

		actions := make(map[string]struct{}, len(m.Actions))
		for _, a := range m.Actions {
			if a.Slug == "" {
				return nil, fmt.Errorf("catalog: module %q: action slug is required", m.Slug)
			}
			if _, dup := actions[a.Slug]; dup {
				return nil, fmt.Errorf("catalog: module %q: duplicate action slug %q", m.Slug, a.Slug)
			}
			actions[a.Slug] = struct{}{}
		}
	}
	return f.Modules, nil
}

// LoadFile reads a catalog definition from path.
func LoadFile(path string) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
