package sqlite

import (
	"encoding/json"
	"fmt"
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

func encodeText(t catalog.LocalizedText) (string, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal localized text: %w", err)
	}
	return string(b), nil
}

func decodeText(s string) (catalog.LocalizedText, error) {
	if s == "" {
		return nil, nil
	}
	var t catalog.LocalizedText
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil, fmt.Errorf("unmarshal localized text: %w", err)
	}
	return t, nil
}

// ──────────────────────────────────────────────────
// Catalog models
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:castellan_modules"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Slug            string    `grove:"slug,notnull"`
	Name            string    `grove:"name"` // JSON text
	SortOrder       int       `grove:"sort_order,notnull"`
	Icon            string    `grove:"icon"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

type actionModel struct {
	grove.BaseModel `grove:"table:castellan_actions"`
	ID              string `grove:"id,pk"`
	ModuleID        string `grove:"module_id,notnull"`
	Slug            string `grove:"slug,notnull"`
	Name            string `grove:"name"` // JSON text
	Position        int    `grove:"position,notnull"`
}

func moduleToModel(m *catalog.Module) (*moduleModel, []actionModel, error) {
	name, err := encodeText(m.Name)
	if err != nil {
		return nil, nil, err
	}
	mm := &moduleModel{
		ID:        m.ID.String(),
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      name,
		SortOrder: m.Order,
		Icon:      m.Icon,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	actions := make([]actionModel, len(m.Actions))
	for i, a := range m.Actions {
		aname, err := encodeText(a.Name)
		if err != nil {
			return nil, nil, err
		}
		actions[i] = actionModel{ID: a.ID.String(), ModuleID: mm.ID, Slug: a.Slug, Name: aname, Position: i}
	}
	return mm, actions, nil
}

func moduleFromModel(m *moduleModel, actions []actionModel) (*catalog.Module, error) {
	mid, _ := id.ParseModuleID(m.ID) //nolint:errcheck // stored IDs are always valid
	name, err := decodeText(m.Name)
	if err != nil {
		return nil, err
	}
	mod := &catalog.Module{
		ID:        mid,
		TenantID:  m.TenantID,
		Slug:      m.Slug,
		Name:      name,
		Order:     m.SortOrder,
		Icon:      m.Icon,
		Actions:   make([]catalog.Action, 0, len(actions)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, a := range actions {
		aid, _ := id.ParseActionID(a.ID) //nolint:errcheck // stored IDs are always valid
		aname, err := decodeText(a.Name)
		if err != nil {
			return nil, err
		}
		mod.Actions = append(mod.Actions, catalog.Action{ID: aid, ModuleID: mid, Slug: a.Slug, Name: aname})
	}
	return mod, nil
}

// ──────────────────────────────────────────────────
// Role models
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:castellan_roles"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Slug            string    `grove:"slug,notnull"`
	Name            string    `grove:"name"` // JSON text
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:castellan_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	ModuleSlug      string `grove:"module_slug,pk"`
	ActionSlug      string `grove:"action_slug,pk"`
}

func roleToModel(r *role.Role) (*roleModel, []rolePermissionModel, error) {
	name, err := encodeText(r.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal role name: %w", err)
	}
	m := &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Slug:        r.Slug,
		Name:        name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	grants := make([]rolePermissionModel, 0, r.Permissions.Len())
	for _, mod := range r.Permissions.Modules() {
		for _, a := range r.Permissions.Actions(mod) {
			grants = append(grants, rolePermissionModel{RoleID: m.ID, ModuleSlug: mod, ActionSlug: a})
		}
	}
	return m, grants, nil
}

func roleFromModel(m *roleModel, grants []rolePermissionModel) (*role.Role, error) {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	name, err := decodeText(m.Name)
	if err != nil {
		return nil, fmt.Errorf("unmarshal role name: %w", err)
	}
	perms := make(permset.Set)
	for _, g := range grants {
		perms.Add(g.ModuleSlug, g.ActionSlug)
	}
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		Slug:        m.Slug,
		Name:        name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Permissions: perms,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Package model
// ──────────────────────────────────────────────────

type packageModel struct {
	grove.BaseModel `grove:"table:castellan_packages"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Name            string    `grove:"name,notnull"`
	Type            string    `grove:"type,notnull"`
	Permissions     string    `grove:"permissions"` // JSON text
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func packageToModel(p *bundle.Package) (*packageModel, error) {
	perms, err := json.Marshal(p.Permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal package permissions: %w", err)
	}
	return &packageModel{
		ID:          p.ID.String(),
		TenantID:    p.TenantID,
		Name:        p.Name,
		Type:        string(p.Type),
		Permissions: string(perms),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func packageFromModel(m *packageModel) (*bundle.Package, error) {
	pid, _ := id.ParsePackageID(m.ID) //nolint:errcheck // stored IDs are always valid
	perms := make(permset.Set)
	if m.Permissions != "" {
		if err := json.Unmarshal([]byte(m.Permissions), &perms); err != nil {
			return nil, fmt.Errorf("unmarshal package permissions: %w", err)
		}
	}
	return &bundle.Package{
		ID:          pid,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Type:        tenant.AdminType(m.Type),
		Permissions: perms,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
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
