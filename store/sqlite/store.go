// Package sqlite provides a SQLite implementation of the castellan composite
// store using grove ORM. It suits single-node deployments and local
// development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite castellan store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("castellan/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("castellan/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func wrapWrite(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("castellan: %s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("castellan: %s: %w", op, err)
}

// affected is the part of a grove exec result the store inspects.
type affected interface {
	RowsAffected() (int64, error)
}

func notFoundIfNone(res affected, what string, key fmt.Stringer) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", what, key, store.ErrNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Catalog operations
// ──────────────────────────────────────────────────

func (s *Store) CreateModule(ctx context.Context, m *catalog.Module) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.writeModule(ctx, m, true)
}

func (s *Store) UpdateModule(ctx context.Context, m *catalog.Module) error {
	m.UpdatedAt = time.Now().UTC()
	return s.writeModule(ctx, m, false)
}

func (s *Store) writeModule(ctx context.Context, m *catalog.Module, create bool) error {
	mm, actions, err := moduleToModel(m)
	if err != nil {
		return fmt.Errorf("castellan: write module: %w", err)
	}

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if create {
		if _, err := tx.NewInsert(mm).Exec(ctx); err != nil {
			return wrapWrite("create module", err)
		}
	} else {
		res, err := tx.NewUpdate(mm).WherePK().Exec(ctx)
		if err != nil {
			return wrapWrite("update module", err)
		}
		if err := notFoundIfNone(res, "module", m.ID); err != nil {
			return err
		}
		if _, err := tx.NewDelete((*actionModel)(nil)).Where("module_id = ?", mm.ID).Exec(ctx); err != nil {
			return fmt.Errorf("castellan: clear module actions: %w", err)
		}
	}
	if len(actions) > 0 {
		if _, err := tx.NewInsert(&actions).Exec(ctx); err != nil {
			return wrapWrite("set module actions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, moduleID id.ModuleID) (*catalog.Module, error) {
	m := new(moduleModel)
	if err := s.sdb.NewSelect(m).Where("id = ?", moduleID.String()).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module: %w", err)
	}
	return s.loadModule(ctx, m)
}

func (s *Store) GetModuleBySlug(ctx context.Context, tenantID, slug string) (*catalog.Module, error) {
	m := new(moduleModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("module slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module by slug: %w", err)
	}
	return s.loadModule(ctx, m)
}

func (s *Store) loadModule(ctx context.Context, m *moduleModel) (*catalog.Module, error) {
	var actions []actionModel
	err := s.sdb.NewSelect(&actions).
		Where("module_id = ?", m.ID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list module actions: %w", err)
	}
	mod, err := moduleFromModel(m, actions)
	if err != nil {
		return nil, fmt.Errorf("castellan: load module: %w", err)
	}
	return mod, nil
}

func (s *Store) DeleteModule(ctx context.Context, moduleID id.ModuleID) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	// SQLite only cascades with foreign_keys enabled; delete actions explicitly.
	if _, err := tx.NewDelete((*actionModel)(nil)).Where("module_id = ?", moduleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("castellan: delete module actions: %w", err)
	}
	res, err := tx.NewDelete((*moduleModel)(nil)).Where("id = ?", moduleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete module: %w", err)
	}
	if err := notFoundIfNone(res, "module", moduleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListModules(ctx context.Context, filter *catalog.ListFilter) ([]*catalog.Module, error) {
	var tenantID string
	if filter != nil {
		tenantID = filter.TenantID
	}
	var models []moduleModel
	q := s.sdb.NewSelect(&models).
		Where("(tenant_id = '' OR tenant_id = ?)", tenantID).
		OrderExpr("sort_order ASC, slug ASC")
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list modules: %w", err)
	}

	result := make([]*catalog.Module, 0, len(models))
	for i := range models {
		mod, err := s.loadModule(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, mod)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return s.writeRole(ctx, r, true)
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	return s.writeRole(ctx, r, false)
}

func (s *Store) writeRole(ctx context.Context, r *role.Role, create bool) error {
	m, grants, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("castellan: write role: %w", err)
	}

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if create {
		if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
			return wrapWrite("create role", err)
		}
	} else {
		res, err := tx.NewUpdate(m).WherePK().Exec(ctx)
		if err != nil {
			return wrapWrite("update role", err)
		}
		if err := notFoundIfNone(res, "role", r.ID); err != nil {
			return err
		}
		if _, err := tx.NewDelete((*rolePermissionModel)(nil)).Where("role_id = ?", m.ID).Exec(ctx); err != nil {
			return fmt.Errorf("castellan: clear role permissions: %w", err)
		}
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

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	if err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get role: %w", err)
	}
	return s.loadRole(ctx, m)
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get role by slug: %w", err)
	}
	return s.loadRole(ctx, m)
}

func (s *Store) roleGrants(ctx context.Context, roleID string) ([]rolePermissionModel, error) {
	var grants []rolePermissionModel
	err := s.sdb.NewSelect(&grants).
		Where("role_id = ?", roleID).
		OrderExpr("module_slug ASC, action_slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list role permissions: %w", err)
	}
	return grants, nil
}

func (s *Store) loadRole(ctx context.Context, m *roleModel) (*role.Role, error) {
	grants, err := s.roleGrants(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	r, err := roleFromModel(m, grants)
	if err != nil {
		return nil, fmt.Errorf("castellan: load role: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*rolePermissionModel)(nil)).Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("castellan: delete role permissions: %w", err)
	}
	res, err := tx.NewDelete((*roleModel)(nil)).Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete role: %w", err)
	}
	if err := notFoundIfNone(res, "role", roleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("(LOWER(slug) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))", like, like)
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
		r, err := s.loadRole(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *Store) ListRolePermissions(ctx context.Context, roleID id.RoleID) ([]string, error) {
	n, err := s.sdb.NewSelect((*roleModel)(nil)).Where("id = ?", roleID.String()).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list role permissions: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	grants, err := s.roleGrants(ctx, roleID.String())
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(grants))
	for i, g := range grants {
		keys[i] = permset.Key(g.ModuleSlug, g.ActionSlug)
	}
	return keys, nil
}

// ──────────────────────────────────────────────────
// Package operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePackage(ctx context.Context, p *bundle.Package) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m, err := packageToModel(p)
	if err != nil {
		return fmt.Errorf("castellan: create package: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return wrapWrite("create package", err)
	}
	return nil
}

func (s *Store) GetPackage(ctx context.Context, pkgID id.PackageID) (*bundle.Package, error) {
	m := new(packageModel)
	if err := s.sdb.NewSelect(m).Where("id = ?", pkgID.String()).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get package: %w", err)
	}
	p, err := packageFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("castellan: get package: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePackage(ctx context.Context, p *bundle.Package) error {
	p.UpdatedAt = time.Now().UTC()
	m, err := packageToModel(p)
	if err != nil {
		return fmt.Errorf("castellan: update package: %w", err)
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: update package: %w", err)
	}
	return notFoundIfNone(res, "package", p.ID)
}

func (s *Store) DeletePackage(ctx context.Context, pkgID id.PackageID) error {
	res, err := s.sdb.NewDelete((*packageModel)(nil)).Where("id = ?", pkgID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete package: %w", err)
	}
	return notFoundIfNone(res, "package", pkgID)
}

func (s *Store) ListPackages(ctx context.Context, filter *bundle.ListFilter) ([]*bundle.Package, error) {
	var models []packageModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("(tenant_id = '' OR tenant_id = ?)", filter.TenantID)
		}
		if filter.Type != "" {
			q = q.Where("type = ?", string(filter.Type))
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list packages: %w", err)
	}
	result := make([]*bundle.Package, 0, len(models))
	for i := range models {
		p, err := packageFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("castellan: list packages: %w", err)
		}
		result = append(result, p)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	a.CreatedAt = time.Now().UTC()
	if _, err := s.sdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		return wrapWrite("create assignment", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	if err := s.sdb.NewSelect(m).Where("id = ?", assID.String()).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).Where("id = ?", assID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete assignment: %w", err)
	}
	return notFoundIfNone(res, "assignment", assID)
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		if rid, err := id.ParseRoleID(m.RoleID); err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) CountAssignmentsForRole(ctx context.Context, roleID id.RoleID) (int64, error) {
	count, err := s.sdb.NewSelect((*assignmentModel)(nil)).Where("role_id = ?", roleID.String()).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ReassignRole(ctx context.Context, from, to id.RoleID) (int64, error) {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	dropped, err := tx.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", from.String()).
		Where("(tenant_id, user_id) IN (SELECT tenant_id, user_id FROM castellan_assignments WHERE role_id = ?)", to.String()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}
	moved, err := tx.NewUpdate((*assignmentModel)(nil)).
		Set("role_id = ?", to.String()).
		Where("role_id = ?", from.String()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("castellan: commit tx: %w", err)
	}

	var total int64
	for _, res := range []affected{dropped, moved} {
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("castellan: reassign role rows: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	if _, err := s.sdb.NewDelete((*assignmentModel)(nil)).Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("castellan: delete assignments by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Tenant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.sdb.NewInsert(tenantToModel(t)).Exec(ctx); err != nil {
		return wrapWrite("create tenant", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	m := new(tenantModel)
	if err := s.sdb.NewSelect(m).Where("id = ?", tenantID.String()).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get tenant: %w", err)
	}
	return tenantFromModel(m), nil
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	m := new(tenantModel)
	if err := s.sdb.NewSelect(m).Where("slug = ?", slug).Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("tenant slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get tenant by slug: %w", err)
	}
	return tenantFromModel(m), nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.sdb.NewUpdate(tenantToModel(t)).WherePK().Exec(ctx)
	if err != nil {
		return wrapWrite("update tenant", err)
	}
	return notFoundIfNone(res, "tenant", t.ID)
}

func (s *Store) ListTenants(ctx context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	var models []tenantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.AdminType != "" {
			q = q.Where("admin_type = ?", string(filter.AdminType))
		}
		if filter.RootAdminID != nil {
			q = q.Where("root_admin_id = ?", filter.RootAdminID.String())
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))", like, like)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list tenants: %w", err)
	}
	result := make([]*tenant.Tenant, len(models))
	for i := range models {
		result[i] = tenantFromModel(&models[i])
	}
	return result, nil
}
