package tenant

import (
	"context"

	"github.com/xraph/castellan/id"
)

// Store defines persistence operations for tenants. There is no delete:
// deactivation goes through UpdateTenant.
type Store interface {
	// CreateTenant persists a new tenant.
	CreateTenant(ctx context.Context, t *Tenant) error

	// GetTenant retrieves a tenant by ID.
	GetTenant(ctx context.Context, tenantID id.TenantID) (*Tenant, error)

	// GetTenantBySlug retrieves a tenant by slug.
	GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error)

	// UpdateTenant persists changes to a tenant.
	UpdateTenant(ctx context.Context, t *Tenant) error

	// ListTenants returns tenants matching the filter.
	ListTenants(ctx context.Context, filter *ListFilter) ([]*Tenant, error)
}
