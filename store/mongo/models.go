package mongo

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
// Module model (actions embedded)
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:castellan_modules"`
	ID              string            `grove:"id,pk"      bson:"_id"`
	TenantID        string            `grove:"tenant_id"  bson:"tenant_id"`
	Slug            string            `grove:"slug"       bson:"slug"`
	Name            map[string]string `grove:"name"       bson:"name,omitempty"`
	SortOrder       int               `grove:"sort_order" bson:"sort_order"`
	Icon            string            `grove:"icon"       bson:"icon,omitempty"`
	Actions         []actionDoc       `grove:"actions"    bson:"actions"`
	CreatedAt       time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `grove:"updated_at" bson:"updated_at"`
}

type actionDoc struct {
	ID   string            `bson:"id"`
	Slug string            `bson:"slug"`
	Name map[string]string `bson:"name,omitempty"`
}

func moduleToModel(m *catalog.Module) *moduleModel {
	actions := make([]actionDoc, len(m.Actions))
	for i, a := range m.Actions {
		actions[i] = actionDoc{ID: a.ID.String(), Slug: a.Slug, Name: a.Name}
	}
	return &moduleModel{
		ID:        m.ID.String(),
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      m.Name,
		SortOrder: m.Order,
		Icon:      m.Icon,
		Actions:   actions,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func moduleFromModel(m *moduleModel) *catalog.Module {
	mid, _ := id.ParseModuleID(m.ID) //nolint:errcheck // stored IDs are always valid
	actions := make([]catalog.Action, len(m.Actions))
	for i, a := range m.Actions {
		aid, _ := id.ParseActionID(a.ID) //nolint:errcheck // stored IDs are always valid
		actions[i] = catalog.Action{ID: aid, ModuleID: mid, Slug: a.Slug, Name: a.Name}
	}
	return &catalog.Module{
		ID:        mid,
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      m.Name,
		Order:     m.SortOrder,
		Icon:      m.Icon,
		Actions:   actions,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role model (grants embedded)
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:castellan_roles"`
	ID              string              `grove:"id,pk"       bson:"_id"`
	TenantID        string              `grove:"tenant_id"   bson:"tenant_id"`
	Slug            string              `grove:"slug"        bson:"slug"`
	Name            map[string]string   `grove:"name"        bson:"name,omitempty"`
	Description     string              `grove:"description" bson:"description"`
	IsSystem        bool                `grove:"is_system"   bson:"is_system"`
	Permissions     map[string][]string `grove:"permissions" bson:"permissions"`
	CreatedAt       time.Time           `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time           `grove:"updated_at"  bson:"updated_at"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: r.Permissions.Map(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Permissions: permset.New(m.Permissions),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Package model
// ──────────────────────────────────────────────────

type packageModel struct {
	grove.BaseModel `grove:"table:castellan_packages"`
	ID              string              `grove:"id,pk"       bson:"_id"`
	TenantID        string              `grove:"tenant_id"   bson:"tenant_id"`
	Name            string              `grove:"name"        bson:"name"`
	Type            string              `grove:"type"        bson:"type"`
	Permissions     map[string][]string `grove:"permissions" bson:"permissions"`
	IsActive        bool                `grove:"is_active"   bson:"is_active"`
	CreatedAt       time.Time           `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time           `grove:"updated_at"  bson:"updated_at"`
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
	ID              string    `grove:"id,pk"      bson:"_id"`
	TenantID        string    `grove:"tenant_id"  bson:"tenant_id"`
	UserID          string    `grove:"user_id"    bson:"user_id"`
	RoleID          string    `grove:"role_id"    bson:"role_id"`
	GrantedBy       string    `grove:"granted_by" bson:"granted_by,omitempty"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
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
	ID              string    `grove:"id,pk"           bson:"_id"`
	Name            string    `grove:"name"            bson:"name"`
	Slug            string    `grove:"slug"            bson:"slug"`
	AdminType       string    `grove:"admin_type"      bson:"admin_type"`
	RootAdminID     *string   `grove:"root_admin_id"   bson:"root_admin_id,omitempty"`
	PlanPackageID   *string   `grove:"plan_package_id" bson:"plan_package_id,omitempty"`
	IsVerified      bool      `grove:"is_verified"     bson:"is_verified"`
	IsActive        bool      `grove:"is_active"       bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"      bson:"updated_at"`
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
