// Package plugin defines the plugin system for castellan.
// Plugins are notified of lifecycle events (check answered, role created,
// permissions changed, etc.) and can react with logging, metrics or audit.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/tenant"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// CheckEvent describes one answered permission query.
type CheckEvent struct {
	UserID   string
	TenantID string

	// Permission is the flattened "module:action" key, or the query kind
	// ("all", "any") for multi-check calls.
	Permission string
	Allowed    bool
	CacheHit   bool
	Duration   time.Duration
}

// ──────────────────────────────────────────────────
// Engine hooks
// ──────────────────────────────────────────────────

// AfterCheck is called after a permission query is answered.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, ev CheckEvent) error
}

// ResolveFailed is called when the store could not resolve a user's
// permissions and the engine failed closed.
type ResolveFailed interface {
	OnResolveFailed(ctx context.Context, userID, tenantID string, err error) error
}

// CacheInvalidated is called after cache entries are dropped. An empty key
// means the whole cache was cleared.
type CacheInvalidated interface {
	OnCacheInvalidated(ctx context.Context, key string) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RolePermissionsChanged is called after a role's permission set is saved.
type RolePermissionsChanged interface {
	OnRolePermissionsChanged(ctx context.Context, r *role.Role, diff permset.DiffResult) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// PackageApplied is called after a package is merged into a role.
type PackageApplied interface {
	OnPackageApplied(ctx context.Context, roleID id.RoleID, pkgID id.PackageID) error
}

// ──────────────────────────────────────────────────
// Assignment lifecycle hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a role is assigned to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// RoleUnassigned is called after a role is removed from a user.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, a *assignment.Assignment) error
}

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// TenantCreated is called after a tenant is onboarded.
type TenantCreated interface {
	OnTenantCreated(ctx context.Context, t *tenant.Tenant) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
