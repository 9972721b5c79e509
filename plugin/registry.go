package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/tenant"
)

// entry pairs a hook with the plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook. A nil *Registry is
// valid and dispatches nothing.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	afterCheck       []entry[AfterCheck]
	resolveFailed    []entry[ResolveFailed]
	cacheInvalidated []entry[CacheInvalidated]
	roleCreated      []entry[RoleCreated]
	roleChanged      []entry[RolePermissionsChanged]
	roleDeleted      []entry[RoleDeleted]
	packageApplied   []entry[PackageApplied]
	roleAssigned     []entry[RoleAssigned]
	roleUnassigned   []entry[RoleUnassigned]
	tenantCreated    []entry[TenantCreated]
	shutdown         []entry[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// cacheHook appends p to list when it implements H.
func cacheHook[H any](list []entry[H], p Plugin) []entry[H] {
	if h, ok := p.(H); ok {
		return append(list, entry[H]{name: p.Name(), hook: h})
	}
	return list
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)

	r.afterCheck = cacheHook(r.afterCheck, p)
	r.resolveFailed = cacheHook(r.resolveFailed, p)
	r.cacheInvalidated = cacheHook(r.cacheInvalidated, p)
	r.roleCreated = cacheHook(r.roleCreated, p)
	r.roleChanged = cacheHook(r.roleChanged, p)
	r.roleDeleted = cacheHook(r.roleDeleted, p)
	r.packageApplied = cacheHook(r.packageApplied, p)
	r.roleAssigned = cacheHook(r.roleAssigned, p)
	r.roleUnassigned = cacheHook(r.roleUnassigned, p)
	r.tenantCreated = cacheHook(r.tenantCreated, p)
	r.shutdown = cacheHook(r.shutdown, p)
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin {
	if r == nil {
		return nil
	}
	return r.plugins
}

// emit runs call for every entry, logging hook errors without propagating
// them.
func emit[H any](r *Registry, list []entry[H], hook string, call func(H) error) {
	for _, e := range list {
		if err := call(e.hook); err != nil {
			r.logHookError(hook, e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Engine event emitters
// ──────────────────────────────────────────────────

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, ev CheckEvent) {
	if r == nil {
		return
	}
	emit(r, r.afterCheck, "OnAfterCheck", func(h AfterCheck) error {
		return h.OnAfterCheck(ctx, ev)
	})
}

// EmitResolveFailed notifies all plugins that implement ResolveFailed.
func (r *Registry) EmitResolveFailed(ctx context.Context, userID, tenantID string, err error) {
	if r == nil {
		return
	}
	emit(r, r.resolveFailed, "OnResolveFailed", func(h ResolveFailed) error {
		return h.OnResolveFailed(ctx, userID, tenantID, err)
	})
}

// EmitCacheInvalidated notifies all plugins that implement CacheInvalidated.
func (r *Registry) EmitCacheInvalidated(ctx context.Context, key string) {
	if r == nil {
		return
	}
	emit(r, r.cacheInvalidated, "OnCacheInvalidated", func(h CacheInvalidated) error {
		return h.OnCacheInvalidated(ctx, key)
	})
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	if r == nil {
		return
	}
	emit(r, r.roleCreated, "OnRoleCreated", func(h RoleCreated) error {
		return h.OnRoleCreated(ctx, rl)
	})
}

// EmitRolePermissionsChanged notifies all plugins that implement
// RolePermissionsChanged.
func (r *Registry) EmitRolePermissionsChanged(ctx context.Context, rl *role.Role, diff permset.DiffResult) {
	if r == nil {
		return
	}
	emit(r, r.roleChanged, "OnRolePermissionsChanged", func(h RolePermissionsChanged) error {
		return h.OnRolePermissionsChanged(ctx, rl, diff)
	})
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	if r == nil {
		return
	}
	emit(r, r.roleDeleted, "OnRoleDeleted", func(h RoleDeleted) error {
		return h.OnRoleDeleted(ctx, roleID)
	})
}

// EmitPackageApplied notifies all plugins that implement PackageApplied.
func (r *Registry) EmitPackageApplied(ctx context.Context, roleID id.RoleID, pkgID id.PackageID) {
	if r == nil {
		return
	}
	emit(r, r.packageApplied, "OnPackageApplied", func(h PackageApplied) error {
		return h.OnPackageApplied(ctx, roleID, pkgID)
	})
}

// ──────────────────────────────────────────────────
// Assignment event emitters
// ──────────────────────────────────────────────────

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	if r == nil {
		return
	}
	emit(r, r.roleAssigned, "OnRoleAssigned", func(h RoleAssigned) error {
		return h.OnRoleAssigned(ctx, a)
	})
}

// EmitRoleUnassigned notifies all plugins that implement RoleUnassigned.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, a *assignment.Assignment) {
	if r == nil {
		return
	}
	emit(r, r.roleUnassigned, "OnRoleUnassigned", func(h RoleUnassigned) error {
		return h.OnRoleUnassigned(ctx, a)
	})
}

// ──────────────────────────────────────────────────
// Tenant and shutdown emitters
// ──────────────────────────────────────────────────

// EmitTenantCreated notifies all plugins that implement TenantCreated.
func (r *Registry) EmitTenantCreated(ctx context.Context, t *tenant.Tenant) {
	if r == nil {
		return
	}
	emit(r, r.tenantCreated, "OnTenantCreated", func(h TenantCreated) error {
		return h.OnTenantCreated(ctx, t)
	})
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	if r == nil {
		return
	}
	emit(r, r.shutdown, "OnShutdown", func(h Shutdown) error {
		return h.OnShutdown(ctx)
	})
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors never block the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
