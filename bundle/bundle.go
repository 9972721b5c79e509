// Package bundle defines permission packages: reusable, independently managed
// permission sets that can be merged into roles or used as an affiliate
// tenant's plan ceiling.
package bundle

import (
	"time"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/tenant"
)

// Package is a named permission set. Type restricts which tier of tenant may
// apply it.
type Package struct {
	ID id.PackageID `json:"id" db:"id"`

	// TenantID is empty for platform-wide packages.
	TenantID    string           `json:"tenant_id,omitempty" db:"tenant_id"`
	Name        string           `json:"name" db:"name"`
	Type        tenant.AdminType `json:"type" db:"type"`
	Permissions permset.Set      `json:"permissions" db:"permissions"`
	IsActive    bool             `json:"is_active" db:"is_active"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// Grant tags the package's permissions as a package grant.
func (p *Package) Grant() permset.Grant {
	return permset.PackageGrant(p.ID, p.Permissions)
}

// ApplicableTo reports whether a tenant of tier t may apply this package.
// Root tenants may apply any package; affiliates only affiliate packages.
func (p *Package) ApplicableTo(t tenant.AdminType) bool {
	if !p.IsActive {
		return false
	}
	switch t {
	case tenant.AdminRoot:
		return true
	case tenant.AdminAffiliate:
		return p.Type == tenant.AdminAffiliate
	default:
		return false
	}
}

// ListFilter contains filters for listing packages.
type ListFilter struct {
	// TenantID selects platform-wide packages plus those owned by the
	// tenant. Empty lists every package.
	TenantID string           `json:"tenant_id,omitempty"`
	Type     tenant.AdminType `json:"type,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}
