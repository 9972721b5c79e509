// Package role defines the Role entity and its store interface.
package role

import (
	"time"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
)

// Role is a named bundle of permissions assigned to users within a tenant.
// A role owns its permission set; users reference the role.
type Role struct {
	ID          id.RoleID             `json:"id" db:"id"`
	TenantID    string                `json:"tenant_id" db:"tenant_id"`
	Slug        string                `json:"slug" db:"slug"`
	Name        catalog.LocalizedText `json:"name" db:"name"`
	Description string                `json:"description,omitempty" db:"description"`

	// IsSystem marks roles provisioned by the platform. They cannot be
	// deleted.
	IsSystem bool `json:"is_system" db:"is_system"`

	Permissions permset.Set `json:"permissions" db:"permissions"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// GetTenantID returns the owning tenant.
func (r *Role) GetTenantID() string { return r.TenantID }

// Grant tags the role's permissions as a role grant.
func (r *Role) Grant() permset.Grant {
	return permset.RoleGrant(r.ID, r.Permissions)
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
