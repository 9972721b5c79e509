package castellan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/castellan/cache"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// Engine resolves effective permission sets and answers queries against
// them. It holds no persisted state beyond its cache.
type Engine struct {
	store   store.Store
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config

	// flight collapses concurrent misses per key. ClearCache swaps it so
	// callers never join a computation started before the clear.
	flight atomic.Pointer[singleflight.Group]

	// epoch is bumped by every invalidation. A computation only populates
	// the cache when the epoch is unchanged since it started.
	epoch atomic.Uint64
}

// NewEngine creates a new castellan engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("castellan: store is required")
	}
	if e.cache == nil {
		e.cache = cache.NewMemory(
			cache.WithTTL(e.config.CacheTTL),
			cache.WithMaxSize(e.config.CacheMaxEntries),
		)
	}
	e.flight.Store(new(singleflight.Group))
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	e.plugins.EmitShutdown(ctx)
	return nil
}

// HasPermission reports whether the user may perform check. Resolution
// failures deny.
func (e *Engine) HasPermission(ctx context.Context, pc PermissionContext, check Check) bool {
	start := time.Now()
	keys, hit := e.effective(ctx, pc)
	key := check.Key()
	allowed := keys.Has(key)
	e.emitCheck(ctx, pc, key, allowed, hit, start)
	return allowed
}

// HasAllPermissions reports whether every check passes. An empty list is
// vacuously true.
func (e *Engine) HasAllPermissions(ctx context.Context, pc PermissionContext, checks []Check) bool {
	if len(checks) == 0 {
		return true
	}
	start := time.Now()
	keys, hit := e.effective(ctx, pc)
	allowed := true
	for _, c := range checks {
		if !keys.Has(c.Key()) {
			allowed = false
			break
		}
	}
	e.emitCheck(ctx, pc, "all", allowed, hit, start)
	return allowed
}

// HasAnyPermission reports whether at least one check passes. An empty list
// is vacuously false.
func (e *Engine) HasAnyPermission(ctx context.Context, pc PermissionContext, checks []Check) bool {
	if len(checks) == 0 {
		return false
	}
	start := time.Now()
	keys, hit := e.effective(ctx, pc)
	allowed := false
	for _, c := range checks {
		if keys.Has(c.Key()) {
			allowed = true
			break
		}
	}
	e.emitCheck(ctx, pc, "any", allowed, hit, start)
	return allowed
}

// AccessibleModules returns the menu entries for every module in which the
// user holds at least one action, ordered by Order then slug. Granted
// actions are listed in catalog order. Modules with no granted action are
// omitted.
func (e *Engine) AccessibleModules(ctx context.Context, pc PermissionContext) []ModuleMenuConfig {
	menu := []ModuleMenuConfig{}
	keys, _ := e.effective(ctx, pc)
	if len(keys) == 0 {
		return menu
	}

	listed, err := e.store.ListModules(ctx, &catalog.ListFilter{TenantID: pc.TenantID})
	if err != nil {
		e.logger.Error("castellan: list modules failed",
			slog.String("tenant_id", pc.TenantID),
			slog.String("error", err.Error()),
		)
		return menu
	}
	modules := make([]catalog.Module, 0, len(listed))
	for _, m := range listed {
		modules = append(modules, *m)
	}
	catalog.SortModules(modules)

	for _, m := range modules {
		var actions []string
		for _, a := range m.Actions {
			if keys.Has(m.Slug + ":" + a.Slug) {
				actions = append(actions, a.Slug)
			}
		}
		if len(actions) == 0 {
			continue
		}
		menu = append(menu, ModuleMenuConfig{
			ID:        m.ID,
			Name:      m.Name,
			Slug:      m.Slug,
			Icon:      m.Icon,
			Order:     m.Order,
			Actions:   actions,
			HasAccess: true,
		})
	}
	return menu
}

// Effective returns the user's effective key set, surfacing store failures
// instead of degrading to the empty set. The result is a copy.
func (e *Engine) Effective(ctx context.Context, pc PermissionContext) (permset.KeySet, error) {
	keys, _, err := e.resolve(ctx, pc)
	if err != nil {
		return nil, err
	}
	out := make(permset.KeySet, len(keys))
	for k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// InvalidateUserCache drops the cached set for a user in a tenant. Call it
// after the write that changed the user's roles has committed.
func (e *Engine) InvalidateUserCache(ctx context.Context, userID, tenantID string) {
	key := CacheKey(userID, tenantID)
	e.epoch.Add(1)
	e.flight.Load().Forget(key)
	e.cache.Delete(ctx, key)
	e.logger.Debug("castellan: cache invalidated",
		slog.String("user_id", userID),
		slog.String("tenant_id", tenantID),
	)
	e.plugins.EmitCacheInvalidated(ctx, key)
}

// ClearCache drops every cached set.
func (e *Engine) ClearCache(ctx context.Context) {
	e.epoch.Add(1)
	e.flight.Store(new(singleflight.Group))
	e.cache.Clear(ctx)
	e.logger.Debug("castellan: cache cleared")
	e.plugins.EmitCacheInvalidated(ctx, "")
}

// effective resolves the key set, failing closed. The bool reports a cache
// hit.
func (e *Engine) effective(ctx context.Context, pc PermissionContext) (permset.KeySet, bool) {
	keys, hit, err := e.resolve(ctx, pc)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			e.logger.Error("castellan: permission resolution failed",
				slog.String("user_id", pc.UserID),
				slog.String("tenant_id", pc.TenantID),
				slog.String("error", err.Error()),
			)
			e.plugins.EmitResolveFailed(ctx, pc.UserID, pc.TenantID, err)
		}
		return permset.KeySet{}, false
	}
	return keys, hit
}

func (e *Engine) resolve(ctx context.Context, pc PermissionContext) (permset.KeySet, bool, error) {
	if !pc.Valid() {
		return nil, false, ErrUnauthenticated
	}
	key := CacheKey(pc.UserID, pc.TenantID)
	if keys, ok := e.cache.Get(ctx, key); ok {
		return keys, true, nil
	}

	// Joined callers share the flight; it outlives the first caller's context.
	fctx := context.WithoutCancel(ctx)
	v, err, _ := e.flight.Load().Do(key, func() (any, error) {
		epoch := e.epoch.Load()
		keys, err := e.compute(fctx, pc)
		if err != nil {
			return nil, err
		}
		if e.epoch.Load() == epoch {
			e.cache.Set(fctx, key, keys)
		}
		return keys, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(permset.KeySet), false, nil //nolint:forcetypeassert // Do only returns KeySet values
}

// compute merges the permission sets of every role assigned to the user in
// the tenant, then applies tenant status and the optional plan ceiling.
func (e *Engine) compute(ctx context.Context, pc PermissionContext) (permset.KeySet, error) {
	t, err := e.lookupTenant(ctx, pc.TenantID)
	if err != nil {
		return nil, err
	}
	if t != nil && !t.IsActive {
		return permset.KeySet{}, nil
	}

	roleIDs, err := e.store.ListRolesForUser(ctx, pc.TenantID, pc.UserID)
	if err != nil {
		return nil, fmt.Errorf("castellan: list roles for user: %w", err)
	}

	grants := make([]permset.Grant, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		keys, err := e.store.ListRolePermissions(ctx, roleID)
		if errors.Is(err, store.ErrNotFound) {
			// Assignment outlived its role: contributes nothing.
			e.logger.Warn("castellan: assigned role not found",
				slog.String("user_id", pc.UserID),
				slog.String("tenant_id", pc.TenantID),
				slog.String("role_id", roleID.String()),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("castellan: list role permissions %s: %w", roleID, err)
		}
		set, perr := permset.FromKeys(keys)
		if perr != nil {
			e.logger.Warn("castellan: malformed stored permission",
				slog.String("role_id", roleID.String()),
				slog.String("error", perr.Error()),
			)
		}
		grants = append(grants, permset.RoleGrant(roleID, set))
	}
	merged := permset.MergeGrants(grants...)

	if e.config.EnforcePlanCeiling && t != nil && t.AdminType != tenant.AdminRoot {
		plan, err := e.planCeiling(ctx, t)
		if err != nil {
			return nil, err
		}
		merged = permset.FilterByScope(merged, t.AdminType, plan)
	}
	return permset.Flatten(merged), nil
}

// lookupTenant returns the tenant record, or nil when the tenant is not
// managed by this store.
func (e *Engine) lookupTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	tid, err := id.ParseTenantID(tenantID)
	if err != nil {
		return nil, nil //nolint:nilnil // externally managed tenant
	}
	t, err := e.store.GetTenant(ctx, tid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil //nolint:nilnil // externally managed tenant
	}
	if err != nil {
		return nil, fmt.Errorf("castellan: get tenant: %w", err)
	}
	return t, nil
}

// planCeiling returns the set an affiliate is capped at. Nil means no plan,
// which caps the affiliate at nothing.
func (e *Engine) planCeiling(ctx context.Context, t *tenant.Tenant) (permset.Set, error) {
	if t.PlanPackageID == nil {
		return nil, nil
	}
	pkg, err := e.store.GetPackage(ctx, *t.PlanPackageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("castellan: get plan package: %w", err)
	}
	if !pkg.IsActive {
		return nil, nil
	}
	return pkg.Permissions, nil
}

func (e *Engine) emitCheck(ctx context.Context, pc PermissionContext, perm string, allowed, hit bool, start time.Time) {
	e.plugins.EmitAfterCheck(ctx, plugin.CheckEvent{
		UserID:     pc.UserID,
		TenantID:   pc.TenantID,
		Permission: perm,
		Allowed:    allowed,
		CacheHit:   hit,
		Duration:   time.Since(start),
	})
}
