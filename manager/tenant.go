package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// CreateTenant onboards a tenant. Affiliates must name an active root
// parent; a plan package, when set, must be an affiliate package. New
// tenants start active and unverified.
func (m *Manager) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = catalog.NormalizeSlug(t.Slug)
	if t.Slug == "" {
		return errors.New("manager: tenant slug is required")
	}
	if !t.AdminType.Valid() {
		return fmt.Errorf("%w: %q", castellan.ErrInvalidAdminType, t.AdminType)
	}

	var parent *tenant.Tenant
	if t.RootAdminID != nil {
		p, err := m.store.GetTenant(ctx, *t.RootAdminID)
		switch {
		case err == nil:
			parent = p
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("manager: get parent tenant: %w", err)
		}
	}
	if err := tenant.ValidateHierarchy(t, parent); err != nil {
		return err
	}
	if err := m.checkPlan(ctx, t.PlanPackageID); err != nil {
		return err
	}

	if t.ID.IsNil() {
		t.ID = id.NewTenantID()
	}
	t.IsActive = true
	t.IsVerified = false
	if err := m.store.CreateTenant(ctx, t); err != nil {
		return fmt.Errorf("manager: create tenant: %w", err)
	}
	m.plugins.EmitTenantCreated(ctx, t)
	return nil
}

// VerifyTenant marks a tenant as verified.
func (m *Manager) VerifyTenant(ctx context.Context, tenantID id.TenantID) error {
	return m.updateTenant(ctx, tenantID, func(t *tenant.Tenant) bool {
		if t.IsVerified {
			return false
		}
		t.IsVerified = true
		return true
	})
}

// SetTenantActive activates or deactivates a tenant. Users of a deactivated
// tenant resolve to no permissions.
func (m *Manager) SetTenantActive(ctx context.Context, tenantID id.TenantID, active bool) error {
	changed := false
	err := m.updateTenant(ctx, tenantID, func(t *tenant.Tenant) bool {
		changed = t.IsActive != active
		t.IsActive = active
		return changed
	})
	if err == nil && changed {
		m.engine.ClearCache(ctx)
	}
	return err
}

// SetTenantPlan sets or clears an affiliate's plan ceiling.
func (m *Manager) SetTenantPlan(ctx context.Context, tenantID id.TenantID, pkgID *id.PackageID) error {
	if err := m.checkPlan(ctx, pkgID); err != nil {
		return err
	}
	err := m.updateTenant(ctx, tenantID, func(t *tenant.Tenant) bool {
		t.PlanPackageID = pkgID
		return true
	})
	if err == nil {
		m.engine.ClearCache(ctx)
	}
	return err
}

func (m *Manager) checkPlan(ctx context.Context, pkgID *id.PackageID) error {
	if pkgID == nil {
		return nil
	}
	p, err := m.store.GetPackage(ctx, *pkgID)
	if err != nil {
		return notFound(castellan.ErrPackageNotFound, err)
	}
	if p.Type != tenant.AdminAffiliate {
		return fmt.Errorf("%w: plan %q is a %s package", castellan.ErrPackageNotApplicable, p.Name, p.Type)
	}
	return nil
}

func (m *Manager) updateTenant(ctx context.Context, tenantID id.TenantID, mutate func(*tenant.Tenant) bool) error {
	t, err := m.store.GetTenant(ctx, tenantID)
	if err != nil {
		return notFound(castellan.ErrTenantNotFound, err)
	}
	if !mutate(t) {
		return nil
	}
	if err := m.store.UpdateTenant(ctx, t); err != nil {
		return notFound(castellan.ErrTenantNotFound, err)
	}
	return nil
}
