// Package catalog defines the static Module and Action definitions that make
// up the permission universe, and the store interface that supplies them.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/xraph/castellan/id"
)

// LocalizedText maps a language code to display text. castellan passes it
// through untouched; rendering is the presentation layer's concern.
type LocalizedText map[string]string

// Module is a named functional area of the admin system (e.g. "cms").
type Module struct {
	ID        id.ModuleID   `json:"id" yaml:"-"`
	TenantID  string        `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	Slug      string        `json:"slug" yaml:"slug"`
	Name      LocalizedText `json:"name" yaml:"name"`
	Order     int           `json:"order" yaml:"order"`
	Icon      string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Actions   []Action      `json:"actions" yaml:"actions"`
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"-"`
}

// Action is an operation within a Module (e.g. "view", "edit").
type Action struct {
	ID       id.ActionID   `json:"id" yaml:"-"`
	ModuleID id.ModuleID   `json:"module_id" yaml:"-"`
	Slug     string        `json:"slug" yaml:"slug"`
	Name     LocalizedText `json:"name" yaml:"name"`
}

// Action returns the module's action with the given slug.
func (m *Module) Action(slug string) (Action, bool) {
	for _, a := range m.Actions {
		if a.Slug == slug {
			return a, true
		}
	}
	return Action{}, false
}

// Normalize lowercases slugs, fills missing IDs and binds every action to
// this module. It is applied before a module is persisted.
func (m *Module) Normalize() {
	if m.ID.IsNil() {
		m.ID = id.NewModuleID()
	}
	m.Slug = NormalizeSlug(m.Slug)
	for i := range m.Actions {
		a := &m.Actions[i]
		if a.ID.IsNil() {
			a.ID = id.NewActionID()
		}
		a.ModuleID = m.ID
		a.Slug = NormalizeSlug(a.Slug)
	}
}

// NormalizeSlug trims and lowercases a machine name.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ListFilter contains filters for listing modules.
type ListFilter struct {
	// TenantID selects platform-wide modules plus those owned by the tenant.
	// Empty selects platform-wide modules only.
	TenantID string `json:"tenant_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Catalog is an indexed, read-only view over a set of modules.
type Catalog struct {
	modules []Module
	bySlug  map[string]int
}

// New builds a Catalog. Modules are ordered by Order, then slug.
func New(modules []Module) *Catalog {
	c := &Catalog{
		modules: make([]Module, len(modules)),
		bySlug:  make(map[string]int, len(modules)),
	}
	copy(c.modules, modules)
	SortModules(c.modules)
	for i, m := range c.modules {
		c.bySlug[m.Slug] = i
	}
	return c
}

// Modules returns the modules in menu order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Module returns the module with the given slug.
func (c *Catalog) Module(slug string) (Module, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

// Actions returns every action of every module.
func (c *Catalog) Actions() []Action {
	var out []Action
	for _, m := range c.modules {
		out = append(out, m.Actions...)
	}
	return out
}

// SortModules orders modules ascending by Order, breaking ties by slug.
func SortModules(modules []Module) {
	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].Order != modules[j].Order {
			return modules[i].Order < modules[j].Order
		}
		return modules[i].Slug < modules[j].Slug
	})
}
