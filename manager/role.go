package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// DeletePolicy decides what happens to users still holding a role that is
// being deleted.
type DeletePolicy struct {
	reassignTo *id.RoleID
}

// BlockIfAssigned refuses deletion while any user holds the role.
func BlockIfAssigned() DeletePolicy { return DeletePolicy{} }

// ReassignTo moves every holder to fallback, normally a no-access role,
// before deleting.
func ReassignTo(fallback id.RoleID) DeletePolicy { return DeletePolicy{reassignTo: &fallback} }

// CreateRole validates and persists a new role.
func (m *Manager) CreateRole(ctx context.Context, r *role.Role) error {
	if _, err := m.writableTenant(ctx, r.TenantID); err != nil {
		return err
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	r.Slug = catalog.NormalizeSlug(r.Slug)
	if r.Slug == "" {
		return errors.New("manager: role slug is required")
	}
	if r.Permissions == nil {
		r.Permissions = make(permset.Set)
	}
	if err := m.validate(ctx, r.TenantID, r.Permissions); err != nil {
		return fmt.Errorf("manager: role %q: %w", r.Slug, err)
	}
	if err := m.store.CreateRole(ctx, r); err != nil {
		return fmt.Errorf("manager: create role: %w", err)
	}
	m.plugins.EmitRoleCreated(ctx, r)
	return nil
}

// UpdateRolePermissions replaces a role's permission set and returns what
// changed. Holders of the role are invalidated after the write.
func (m *Manager) UpdateRolePermissions(ctx context.Context, roleID id.RoleID, set permset.Set) (permset.DiffResult, error) {
	r, err := m.store.GetRole(ctx, roleID)
	if err != nil {
		return permset.DiffResult{}, notFound(castellan.ErrRoleNotFound, err)
	}
	return m.replacePermissions(ctx, r, set)
}

// ApplyPackage merges an active package into a role. Affiliate tenants may
// only apply affiliate packages.
func (m *Manager) ApplyPackage(ctx context.Context, roleID id.RoleID, pkgID id.PackageID) (permset.DiffResult, error) {
	r, err := m.store.GetRole(ctx, roleID)
	if err != nil {
		return permset.DiffResult{}, notFound(castellan.ErrRoleNotFound, err)
	}
	pkg, err := m.store.GetPackage(ctx, pkgID)
	if err != nil {
		return permset.DiffResult{}, notFound(castellan.ErrPackageNotFound, err)
	}
	if !pkg.IsActive {
		return permset.DiffResult{}, fmt.Errorf("%w: %s", castellan.ErrPackageInactive, pkgID)
	}
	if pkg.TenantID != "" && pkg.TenantID != r.TenantID {
		return permset.DiffResult{}, fmt.Errorf("%w: package %s belongs to another tenant", castellan.ErrTenantMismatch, pkgID)
	}
	if err := m.checkApplicable(ctx, pkg, r.TenantID); err != nil {
		return permset.DiffResult{}, err
	}

	diff, err := m.replacePermissions(ctx, r, permset.MergeGrants(r.Grant(), pkg.Grant()))
	if err != nil {
		return permset.DiffResult{}, err
	}
	m.plugins.EmitPackageApplied(ctx, roleID, pkgID)
	return diff, nil
}

// checkApplicable enforces the package tier against the role's tenant. A
// tenant this store does not manage only accepts affiliate packages.
func (m *Manager) checkApplicable(ctx context.Context, pkg *bundle.Package, tenantID string) error {
	t, err := m.managedTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	tier := pkg.Type
	if t != nil {
		tier = t.AdminType
	} else if pkg.Type != tenant.AdminAffiliate {
		return fmt.Errorf("%w: %s package on unmanaged tenant", castellan.ErrPackageNotApplicable, pkg.Type)
	}
	if !pkg.ApplicableTo(tier) {
		return fmt.Errorf("%w: %s package on %s tenant", castellan.ErrPackageNotApplicable, pkg.Type, tier)
	}
	return nil
}

func (m *Manager) replacePermissions(ctx context.Context, r *role.Role, set permset.Set) (permset.DiffResult, error) {
	if set == nil {
		set = make(permset.Set)
	}
	if _, err := m.writableTenant(ctx, r.TenantID); err != nil {
		return permset.DiffResult{}, err
	}
	if err := m.validate(ctx, r.TenantID, set); err != nil {
		return permset.DiffResult{}, fmt.Errorf("manager: role %q: %w", r.Slug, err)
	}

	diff := permset.Diff(r.Permissions, set)
	if diff.IsEmpty() {
		return diff, nil
	}
	r.Permissions = set.Clone()
	if err := m.store.UpdateRole(ctx, r); err != nil {
		return permset.DiffResult{}, fmt.Errorf("manager: update role: %w", err)
	}

	holders, err := m.holders(ctx, r.ID)
	if err != nil {
		// The write committed; stale entries are bounded by the cache TTL.
		m.logger.Error("manager: list role holders failed, clearing cache",
			"role_id", r.ID.String(), "error", err.Error())
		m.engine.ClearCache(ctx)
	}
	m.invalidate(ctx, holders)
	m.plugins.EmitRolePermissionsChanged(ctx, r, diff)
	return diff, nil
}

// DeleteRole deletes a role under policy. System roles are never deleted.
func (m *Manager) DeleteRole(ctx context.Context, roleID id.RoleID, policy DeletePolicy) error {
	r, err := m.store.GetRole(ctx, roleID)
	if err != nil {
		return notFound(castellan.ErrRoleNotFound, err)
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", castellan.ErrSystemRoleImmutable, r.Slug)
	}
	holders, err := m.holders(ctx, roleID)
	if err != nil {
		return err
	}

	if len(holders) > 0 {
		if policy.reassignTo == nil {
			return fmt.Errorf("%w: %q has %d assignments", castellan.ErrRoleInUse, r.Slug, len(holders))
		}
		fallback, err := m.store.GetRole(ctx, *policy.reassignTo)
		if err != nil {
			return notFound(castellan.ErrRoleNotFound, err)
		}
		if fallback.ID == r.ID {
			return fmt.Errorf("manager: cannot reassign %q to itself", r.Slug)
		}
		if fallback.TenantID != r.TenantID {
			return fmt.Errorf("%w: fallback role %q is in another tenant", castellan.ErrTenantMismatch, fallback.Slug)
		}
		if _, err := m.store.ReassignRole(ctx, r.ID, fallback.ID); err != nil {
			return fmt.Errorf("manager: reassign holders: %w", err)
		}
		m.invalidate(ctx, holders)
	}

	if err := m.store.DeleteRole(ctx, roleID); err != nil {
		return notFound(castellan.ErrRoleNotFound, err)
	}
	m.plugins.EmitRoleDeleted(ctx, roleID)
	return nil
}

func (m *Manager) holders(ctx context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	list, err := m.store.ListAssignments(ctx, &assignment.ListFilter{RoleID: &roleID})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("manager: list role holders: %w", err)
	}
	return list, nil
}

func (m *Manager) invalidate(ctx context.Context, holders []*assignment.Assignment) {
	seen := make(map[string]struct{}, len(holders))
	for _, a := range holders {
		key := castellan.CacheKey(a.UserID, a.TenantID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		m.engine.InvalidateUserCache(ctx, a.UserID, a.TenantID)
	}
}
