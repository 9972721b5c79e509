package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
)

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	m := roleToModel(r)
	grants := grantsToModels(m.ID, r.Permissions)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
		return wrapWrite("create role", err)
	}
	if len(grants) > 0 {
		if _, err := tx.NewInsert(&grants).Exec(ctx); err != nil {
			return wrapWrite("create role permissions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get role: %w", err)
	}
	return s.withGrants(ctx, m)
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get role by slug: %w", err)
	}
	return s.withGrants(ctx, m)
}

func (s *Store) withGrants(ctx context.Context, m *roleModel) (*role.Role, error) {
	grants, err := s.grants(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return roleFromModel(m, grants), nil
}

func (s *Store) grants(ctx context.Context, roleID string) ([]rolePermissionModel, error) {
	var grants []rolePermissionModel
	err := s.pgdb.NewSelect(&grants).
		Where("role_id = ?", roleID).
		OrderExpr("module_slug ASC, action_slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list role permissions: %w", err)
	}
	return grants, nil
}

// UpdateRole replaces the role row and its full permission set.
func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = now()
	m := roleToModel(r)
	grants := grantsToModels(m.ID, r.Permissions)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return wrapWrite("update role", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	if _, err := tx.NewDelete((*rolePermissionModel)(nil)).Where("role_id = ?", m.ID).Exec(ctx); err != nil {
		return fmt.Errorf("castellan: clear role permissions: %w", err)
	}
	if len(grants) > 0 {
		if _, err := tx.NewInsert(&grants).Exec(ctx); err != nil {
			return wrapWrite("set role permissions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	res, err := s.pgdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("(slug ILIKE ? OR name::text ILIKE ?)", "%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list roles: %w", err)
	}
	result := make([]*role.Role, 0, len(models))
	for i := range models {
		r, err := s.withGrants(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// ListRolePermissions returns flattened keys. It reports store.ErrNotFound
// when the role itself is gone so callers can tell an orphaned assignment
// from a role without grants.
func (s *Store) ListRolePermissions(ctx context.Context, roleID id.RoleID) ([]string, error) {
	exists, err := s.pgdb.NewSelect((*roleModel)(nil)).Where("id = ?", roleID.String()).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list role permissions: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	grants, err := s.grants(ctx, roleID.String())
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(grants))
	for i, g := range grants {
		keys[i] = permset.Key(g.ModuleSlug, g.ActionSlug)
	}
	return keys, nil
}
