package catalog

import (
	"strings"
	"testing"
)

const sampleYAML = `
modules:
  - slug: Affiliates
    order: 20
    icon: users
    name: {en: Affiliates, de: Partner}
    actions:
      - slug: view
      - slug: approve
  - slug: cms
    order: 10
    name: {en: Content}
    actions:
      - slug: view
        name: {en: View}
      - slug: create
      - slug: delete
`

func TestLoadYAML(t *testing.T) {
	modules, err := LoadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}

	aff := modules[0]
	if aff.Slug != "affiliates" {
		t.Fatalf("expected normalized slug, got %q", aff.Slug)
	}
	if aff.ID.IsNil() {
		t.Fatal("expected module ID to be assigned")
	}
	if aff.Name["de"] != "Partner" {
		t.Fatalf("expected localized name to pass through, got %v", aff.Name)
	}
	for _, a := range aff.Actions {
		if a.ModuleID != aff.ID {
			t.Fatalf("action %q not bound to its module", a.Slug)
		}
	}
}

func TestLoadYAMLRejectsDuplicates(t *testing.T) {
	_, err := LoadYAML(strings.NewReader(`
modules:
  - slug: cms
    actions: [{slug: view}, {slug: VIEW}]
`))
	if err == nil {
		t.Fatal("expected duplicate action error")
	}

	_, err = LoadYAML(strings.NewReader(`
modules:
  - slug: cms
  - slug: cms
`))
	if err == nil {
		t.Fatal("expected duplicate module error")
	}
}

func TestLoadYAMLUnknownField(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("modules:\n  - slug: cms\n    colour: red\n"))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestCatalogOrderingAndLookup(t *testing.T) {
	modules, err := LoadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	c := New(modules)

	ordered := c.Modules()
	if ordered[0].Slug != "cms" || ordered[1].Slug != "affiliates" {
		t.Fatalf("expected cms before affiliates, got %s, %s", ordered[0].Slug, ordered[1].Slug)
	}

	m, ok := c.Module("cms")
	if !ok {
		t.Fatal("expected cms module")
	}
	if _, ok := m.Action("create"); !ok {
		t.Fatal("expected cms:create")
	}
	if _, ok := m.Action("approve"); ok {
		t.Fatal("approve belongs to affiliates, not cms")
	}
	if got := len(c.Actions()); got != 5 {
		t.Fatalf("expected 5 actions, got %d", got)
	}
}
