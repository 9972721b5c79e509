// Package castellan is the role-based access control core of a tenant-scoped
// admin console. It resolves which modules and actions a user may use inside
// a tenant, merges permission sets across roles and packages, and caches the
// decision per user and tenant.
//
//	eng, err := castellan.NewEngine(
//	    castellan.WithStore(memStore),
//	)
//	ok := eng.HasPermission(ctx, castellan.PermissionContext{
//	    UserID:    "usr_123",
//	    TenantID:  "tnt_456",
//	    AdminType: tenant.AdminAffiliate,
//	}, castellan.Check{Module: "cms", Action: "edit"})
package castellan

import (
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/tenant"
)

// PermissionContext is the per-request identity a decision is made for. It
// is rebuilt from the trusted session on every request and never persisted.
type PermissionContext struct {
	UserID    string           `json:"user_id"`
	TenantID  string           `json:"tenant_id"`
	UserRole  string           `json:"user_role,omitempty"`
	AdminType tenant.AdminType `json:"admin_type"`
}

// Valid reports whether the context names both a user and a tenant.
func (p PermissionContext) Valid() bool {
	return p.UserID != "" && p.TenantID != ""
}

// Check is a single (module, action) query.
type Check struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// Key returns the flattened "module:action" key.
func (c Check) Key() string { return permset.Key(c.Module, c.Action) }

// ParseCheck builds a Check from a "module:action" key.
func ParseCheck(key string) (Check, error) {
	m, a, err := permset.ParseKey(key)
	if err != nil {
		return Check{}, err
	}
	return Check{Module: m, Action: a}, nil
}

// ModuleMenuConfig is one entry of the accessible-module menu.
type ModuleMenuConfig struct {
	ID        id.ModuleID           `json:"id"`
	Name      catalog.LocalizedText `json:"name"`
	Slug      string                `json:"slug"`
	Icon      string                `json:"icon,omitempty"`
	Order     int                   `json:"order"`
	Actions   []string              `json:"actions"`
	HasAccess bool                  `json:"has_access"`
}
