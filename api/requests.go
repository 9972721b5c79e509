package api

import (
	"github.com/xraph/castellan"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/tenant"
)

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// SubjectRequest identifies the user a query is answered for.
type SubjectRequest struct {
	UserID    string `json:"user_id" description:"User identifier"`
	TenantID  string `json:"tenant_id" description:"Tenant the user acts in"`
	UserRole  string `json:"user_role,omitempty" description:"Coarse role name"`
	AdminType string `json:"admin_type" description:"Admin tier (root, affiliate)"`
}

// PermissionContext converts the subject into an engine context.
func (s SubjectRequest) PermissionContext() castellan.PermissionContext {
	return castellan.PermissionContext{
		UserID:    s.UserID,
		TenantID:  s.TenantID,
		UserRole:  s.UserRole,
		AdminType: tenant.AdminType(s.AdminType),
	}
}

// CheckRequest is the request body for a permission check.
type CheckRequest struct {
	SubjectRequest
	Permissions []string `json:"permissions" description:"Permission keys (module:action)"`
	RequireAll  bool     `json:"require_all,omitempty" description:"Require every permission instead of any"`
}

// MenuRequest is the request body for the accessible module menu.
type MenuRequest struct {
	SubjectRequest
}

// ──────────────────────────────────────────────────
// Catalog requests
// ──────────────────────────────────────────────────

// ListModulesRequest holds query parameters for listing modules.
type ListModulesRequest struct {
	TenantID string `query:"tenant_id" description:"Include modules owned by this tenant"`
}

// SeedCatalogRequest is the body for upserting catalog modules.
type SeedCatalogRequest struct {
	Modules []catalog.Module `json:"modules" description:"Modules with their actions"`
}

// ValidateRequest is the body for validating a permission set.
type ValidateRequest struct {
	TenantID    string      `json:"tenant_id" description:"Tenant whose catalog applies"`
	Permissions permset.Set `json:"permissions" description:"Module to actions mapping"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	TenantID    string                `json:"tenant_id" description:"Owning tenant"`
	Slug        string                `json:"slug" description:"Machine name, unique per tenant"`
	Name        catalog.LocalizedText `json:"name,omitempty" description:"Localized display name"`
	Description string                `json:"description,omitempty" description:"Human-readable description"`
	IsSystem    bool                  `json:"is_system,omitempty" description:"System role flag"`
	Permissions permset.Set           `json:"permissions,omitempty" description:"Module to actions mapping"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// DeleteRoleRequest holds the delete policy for a role.
type DeleteRoleRequest struct {
	RoleID     string `path:"roleId" description:"Role ID"`
	ReassignTo string `query:"reassign_to" description:"Fallback role for current holders"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	Search   string `query:"search" description:"Search by slug"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// UpdatePermissionsRequest replaces a role's permission set.
type UpdatePermissionsRequest struct {
	Permissions permset.Set `json:"permissions" description:"Module to actions mapping"`
}

// ApplyPackageRequest merges a package into a role.
type ApplyPackageRequest struct {
	PackageID string `json:"package_id" description:"Package ID to apply"`
}

// ──────────────────────────────────────────────────
// Package requests
// ──────────────────────────────────────────────────

// CreatePackageRequest is the body for creating a permission package.
type CreatePackageRequest struct {
	TenantID    string      `json:"tenant_id,omitempty" description:"Owning tenant, empty for platform-wide"`
	Name        string      `json:"name" description:"Package name"`
	Type        string      `json:"type" description:"Tier the package applies to (root, affiliate)"`
	Permissions permset.Set `json:"permissions" description:"Module to actions mapping"`
}

// UpdatePackageRequest is the body for updating a package.
type UpdatePackageRequest struct {
	Name        string      `json:"name,omitempty" description:"Package name"`
	Permissions permset.Set `json:"permissions,omitempty" description:"Module to actions mapping"`
}

// GetPackageRequest is the path parameter for getting a package.
type GetPackageRequest struct {
	PackageID string `path:"packageId" description:"Package ID"`
}

// ListPackagesRequest holds query parameters for listing packages.
type ListPackagesRequest struct {
	TenantID string `query:"tenant_id" description:"Include packages owned by this tenant"`
	Type     string `query:"type" description:"Filter by tier"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// SetActiveRequest toggles a package or tenant.
type SetActiveRequest struct {
	IsActive bool `json:"is_active" description:"Active flag"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning a role to a user.
type AssignRoleRequest struct {
	TenantID  string `json:"tenant_id" description:"Tenant of the assignment"`
	UserID    string `json:"user_id" description:"User identifier"`
	RoleID    string `json:"role_id" description:"Role ID to assign"`
	GrantedBy string `json:"granted_by,omitempty" description:"Administrator granting the role"`
}

// GetAssignmentRequest is the path parameter for an assignment.
type GetAssignmentRequest struct {
	AssignmentID string `path:"assignmentId" description:"Assignment ID"`
}

// ListAssignmentsRequest holds query parameters.
type ListAssignmentsRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	UserID   string `query:"user_id" description:"Filter by user"`
	RoleID   string `query:"role_id" description:"Filter by role ID"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// UserRolesRequest identifies a user's roles in a tenant.
type UserRolesRequest struct {
	UserID   string `path:"userId" description:"User identifier"`
	TenantID string `query:"tenant_id" description:"Tenant"`
}

// ──────────────────────────────────────────────────
// Tenant requests
// ──────────────────────────────────────────────────

// CreateTenantRequest is the body for onboarding a tenant.
type CreateTenantRequest struct {
	Name          string `json:"name" description:"Display name"`
	Slug          string `json:"slug" description:"Unique machine name"`
	AdminType     string `json:"admin_type" description:"Tier (root, affiliate)"`
	RootAdminID   string `json:"root_admin_id,omitempty" description:"Parent root tenant of an affiliate"`
	PlanPackageID string `json:"plan_package_id,omitempty" description:"Plan ceiling package"`
}

// GetTenantRequest is the path parameter for a tenant.
type GetTenantRequest struct {
	TenantID string `path:"tenantId" description:"Tenant ID"`
}

// ListTenantsRequest holds query parameters.
type ListTenantsRequest struct {
	AdminType   string `query:"admin_type" description:"Filter by tier"`
	RootAdminID string `query:"root_admin_id" description:"Filter affiliates of a root"`
	Search      string `query:"search" description:"Search by name or slug"`
	Limit       int    `query:"limit" description:"Maximum results"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// SetPlanRequest sets or clears an affiliate's plan package.
type SetPlanRequest struct {
	PlanPackageID string `json:"plan_package_id" description:"Plan package ID, empty to clear"`
}
