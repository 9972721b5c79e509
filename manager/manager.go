// Package manager is the mutation surface for roles, packages, assignments,
// tenants and the catalog. Every write is validated against the catalog,
// persisted through the store, and only then invalidates the engine cache.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// Engine is the part of *castellan.Engine the manager depends on.
type Engine interface {
	Store() store.Store
	Plugins() *plugin.Registry
	Logger() *slog.Logger
	InvalidateUserCache(ctx context.Context, userID, tenantID string)
	ClearCache(ctx context.Context)
}

var _ Engine = (*castellan.Engine)(nil)

// Manager applies administrative changes.
type Manager struct {
	engine  Engine
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
}

// New creates a Manager writing through the engine's store.
func New(eng Engine) *Manager {
	logger := eng.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:  eng,
		store:   eng.Store(),
		plugins: eng.Plugins(),
		logger:  logger,
	}
}

// Validate checks set against the catalog visible to tenantID.
func (m *Manager) Validate(ctx context.Context, tenantID string, set permset.Set) (permset.Validation, error) {
	listed, err := m.store.ListModules(ctx, &catalog.ListFilter{TenantID: tenantID})
	if err != nil {
		return permset.Validation{}, fmt.Errorf("manager: load catalog: %w", err)
	}
	modules := make([]catalog.Module, len(listed))
	for i, mod := range listed {
		modules[i] = *mod
	}
	return permset.ValidateAgainstCatalog(set, modules, catalog.New(modules).Actions()), nil
}

// validate is Validate in blocking-error form.
func (m *Manager) validate(ctx context.Context, tenantID string, set permset.Set) error {
	v, err := m.Validate(ctx, tenantID, set)
	if err != nil {
		return err
	}
	return v.Err()
}

// managedTenant returns the tenant record, or nil when tenantID is not a
// tenant this store manages.
func (m *Manager) managedTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	tid, err := id.ParseTenantID(tenantID)
	if err != nil {
		return nil, nil //nolint:nilnil // externally managed tenant
	}
	t, err := m.store.GetTenant(ctx, tid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil //nolint:nilnil // externally managed tenant
	}
	if err != nil {
		return nil, fmt.Errorf("manager: get tenant: %w", err)
	}
	return t, nil
}

// writableTenant fails when the tenant is managed and deactivated.
func (m *Manager) writableTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", castellan.ErrTenantNotFound)
	}
	t, err := m.managedTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t != nil && !t.IsActive {
		return nil, fmt.Errorf("%w: %s", castellan.ErrTenantInactive, tenantID)
	}
	return t, nil
}

// notFound rewraps a store not-found with the entity sentinel.
func notFound(sentinel, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}
