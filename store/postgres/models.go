package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/tenant"
)

// ──────────────────────────────────────────────────
// Catalog models
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:castellan_modules"`
	ID              string            `grove:"id,pk"`
	TenantID        string            `grove:"tenant_id,notnull"`
	Slug            string            `grove:"slug,notnull"`
	Name            map[string]string `grove:"name,type:jsonb"`
	SortOrder       int               `grove:"sort_order,notnull"`
	Icon            string            `grove:"icon"`
	CreatedAt       time.Time         `grove:"created_at,notnull"`
	UpdatedAt       time.Time         `grove:"updated_at,notnull"`
}

type actionModel struct {
	grove.BaseModel `grove:"table:castellan_actions"`
	ID              string            `grove:"id,pk"`
	ModuleID        string            `grove:"module_id,notnull"`
	Slug            string            `grove:"slug,notnull"`
	Name            map[string]string `grove:"name,type:jsonb"`
	Position        int               `grove:"position,notnull"`
}

func moduleToModel(m *catalog.Module) (*moduleModel, []actionModel) {
	mm := &moduleModel{
		ID:        m.ID.String(),
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      m.Name,
		SortOrder: m.Order,
		Icon:      m.Icon,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	actions := make([]actionModel, len(m.Actions))
	for i, a := range m.Actions {
		actions[i] = actionModel{
			ID:       a.ID.String(),
			ModuleID: mm.ID,
			Slug:     a.Slug,
			Name:     a.Name,
			Position: i,
		}
	}
	return mm, actions
}

func moduleFromModel(m *moduleModel, actions []actionModel) *catalog.Module {
	mid, _ := id.ParseModuleID(m.ID) //nolint:errcheck // stored IDs are always valid
	mod := &catalog.Module{
		ID:        mid,
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      m.Name,
		Order:     m.SortOrder,
		Icon:      m.Icon,
		Actions:   make([]catalog.Action, 0, len(actions)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, a := range actions {
		aid, _ := id.ParseActionID(a.ID) //nolint:errcheck // stored IDs are always valid
		mod.Actions = append(mod.Actions, catalog.Action{
			ID:       aid,
			ModuleID: mid,
			Slug:     a.Slug,
			Name:     a.Name,
		})
	}
	return mod
}

// ──────────────────────────────────────────────────
// Role models
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:castellan_roles"`
	ID              string            `grove:"id,pk"`
	TenantID        string            `grove:"tenant_id,notnull"`
	Slug            string            `grove:"slug,notnull"`
	Name            map[string]string `grove:"name,type:jsonb"`
	Description     string            `grove:"description"`
	IsSystem        bool              `grove:"is_system,notnull"`
	CreatedAt       time.Time         `grove:"created_at,notnull"`
	UpdatedAt       time.Time         `grove:"updated_at,notnull"`
}

// rolePermissionModel is one granted (module, action) pair of a role.
type rolePermissionModel struct {
	grove.BaseModel `grove:"table:castellan_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	ModuleSlug      string `grove:"module_slug,pk"`
	ActionSlug      string `grove:"action_slug,pk"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func grantsToModels(roleID string, s permset.Set) []rolePermissionModel {
	models := make([]rolePermissionModel, 0, s.Len())
	for _, m := range s.Modules() {
		for _, a := range s.Actions(m) {
			models = append(models, rolePermissionModel{RoleID: roleID, ModuleSlug: m, ActionSlug: a})
		}
	}
	return models
}

func roleFromModel(m *roleModel, grants []rolePermissionModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	perms := make(permset.Set)
	for _, g := range grants {
		perms.Add(g.ModuleSlug, g.ActionSlug)
	}
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Permissions: perms,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Package model
// ──────────────────────────────────────────────────

type packageModel struct {
	grove.BaseModel `grove:"table:castellan_packages"`
	ID              string              `grove:"id,pk"`
	TenantID        string              `grove:"tenant_id,notnull"`
	Name            string              `grove:"name,notnull"`
	Type            string              `grove:"type,notnull"`
	Permissions     map[string][]string `grove:"permissions,type:jsonb"`
	IsActive        bool                `grove:"is_active,notnull"`
	CreatedAt       time.Time           `grove:"created_at,notnull"`
	UpdatedAt       time.Time           `grove:"updated_at,notnull"`
}

func packageToModel(p *bundle.Package) *packageModel {
	return &packageModel{
		ID:          p.ID.String(),
		TenantID:    p.TenantID,
		Name:        p.Name,
		Type:        string(p.Type),
		Permissions: p.Permissions.Map(),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func packageFromModel(m *packageModel) *bundle.Package {
	pid, _ := id.ParsePackageID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &bundle.Package{
		ID:          pid,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Type:        tenant.AdminType(m.Type),
		Permissions: permset.New(m.Permissions),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:castellan_assignments"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:        a.ID.String(),
		TenantID:  a.TenantID,
		UserID:    a.UserID,
		RoleID:    a.RoleID.String(),
		GrantedBy: a.GrantedBy,
		CreatedAt: a.CreatedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	return &assignment.Assignment{
		ID:        aid,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		RoleID:    rid,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Tenant model
// ──────────────────────────────────────────────────

type tenantModel struct {
	grove.BaseModel `grove:"table:castellan_tenants"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Slug            string    `grove:"slug,notnull"`
	AdminType       string    `grove:"admin_type,notnull"`
	RootAdminID     *string   `grove:"root_admin_id"`
	PlanPackageID   *string   `grove:"plan_package_id"`
	IsVerified      bool      `grove:"is_verified,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func tenantToModel(t *tenant.Tenant) *tenantModel {
	m := &tenantModel{
		ID:         t.ID.String(),
		Name:       t.Name,
		Slug:       t.Slug,
		AdminType:  string(t.AdminType),
		IsVerified: t.IsVerified,
		IsActive:   t.IsActive,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.RootAdminID != nil {
		s := t.RootAdminID.String()
		m.RootAdminID = &s
	}
	if t.PlanPackageID != nil {
		s := t.PlanPackageID.String()
		m.PlanPackageID = &s
	}
	return m
}

func tenantFromModel(m *tenantModel) *tenant.Tenant {
	tid, _ := id.ParseTenantID(m.ID) //nolint:errcheck // stored IDs are always valid
	t := &tenant.Tenant{
		ID:         tid,
		Name:       m.Name,
		Slug:       m.Slug,
		AdminType:  tenant.AdminType(m.AdminType),
		IsVerified: m.IsVerified,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.RootAdminID != nil {
		if rid, err := id.ParseTenantID(*m.RootAdminID); err == nil {
			t.RootAdminID = &rid
		}
	}
	if m.PlanPackageID != nil {
		if pid, err := id.ParsePackageID(*m.PlanPackageID); err == nil {
			t.PlanPackageID = &pid
		}
	}
	return t
}
