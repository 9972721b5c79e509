// Package assignment defines the Assignment entity (role→user binding).
package assignment

import (
	"time"

	"github.com/xraph/castellan/id"
)

// Assignment binds a role to a user within a tenant. Many users may share
// one role; the user holds a reference, not a copy.
type Assignment struct {
	ID        id.AssignmentID `json:"id" db:"id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	RoleID    id.RoleID       `json:"role_id" db:"role_id"`
	GrantedBy string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// GetTenantID returns the owning tenant.
func (a *Assignment) GetTenantID() string { return a.TenantID }

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	RoleID   *id.RoleID `json:"role_id,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
