// Package tenant defines the Tenant entity, its store interface, and the
// isolation guard that keeps permission decisions inside tenant boundaries.
package tenant

import (
	"time"

	"github.com/xraph/castellan/id"
)

// AdminType is the tier of a tenant, and of the administrators acting in it.
type AdminType string

const (
	// AdminRoot is a platform-level tenant. Root tenants own affiliates.
	AdminRoot AdminType = "root"

	// AdminAffiliate is a tenant parented by exactly one root tenant.
	AdminAffiliate AdminType = "affiliate"
)

// Valid reports whether t is a known admin type.
func (t AdminType) Valid() bool {
	return t == AdminRoot || t == AdminAffiliate
}

// Tenant is an isolated customer or organization boundary. Tenants are never
// hard-deleted; they are deactivated to keep audit trails intact.
type Tenant struct {
	ID        id.TenantID `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Slug      string      `json:"slug" db:"slug"`
	AdminType AdminType   `json:"admin_type" db:"admin_type"`

	// RootAdminID is the parent root tenant of an affiliate. Nil for roots.
	RootAdminID *id.TenantID `json:"root_admin_id,omitempty" db:"root_admin_id"`

	// PlanPackageID is the permission package capping what an affiliate's
	// users may be granted.
	PlanPackageID *id.PackageID `json:"plan_package_id,omitempty" db:"plan_package_id"`

	IsVerified bool      `json:"is_verified" db:"is_verified"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// GetTenantID implements Scoped.
func (t *Tenant) GetTenantID() string { return t.ID.String() }

// ListFilter contains filters for listing tenants.
type ListFilter struct {
	AdminType   AdminType    `json:"admin_type,omitempty"`
	RootAdminID *id.TenantID `json:"root_admin_id,omitempty"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Search      string       `json:"search,omitempty"`
	Limit       int          `json:"limit,omitempty"`
	Offset      int          `json:"offset,omitempty"`
}
