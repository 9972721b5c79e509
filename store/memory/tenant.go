package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

func (s *Store) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenants {
		if existing.Slug == t.Slug {
			return fmt.Errorf("tenant %q: %w", t.Slug, store.ErrConflict)
		}
	}
	s.stamp(&t.CreatedAt, &t.UpdatedAt)
	s.tenants[t.ID.String()] = copyTenant(t)
	return nil
}

func (s *Store) GetTenant(_ context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID.String()]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
	}
	return copyTenant(t), nil
}

func (s *Store) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return copyTenant(t), nil
		}
	}
	return nil, fmt.Errorf("tenant slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID.String()]; !ok {
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrNotFound)
	}
	s.stamp(nil, &t.UpdatedAt)
	s.tenants[t.ID.String()] = copyTenant(t)
	return nil
}

func (s *Store) ListTenants(_ context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if filter != nil {
			if filter.AdminType != "" && t.AdminType != filter.AdminType {
				continue
			}
			if filter.RootAdminID != nil && (t.RootAdminID == nil || *t.RootAdminID != *filter.RootAdminID) {
				continue
			}
			if filter.IsActive != nil && t.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !matchesTenant(t, filter.Search) {
				continue
			}
		}
		result = append(result, copyTenant(t))
	}
	sortByCreated(result,
		func(t *tenant.Tenant) time.Time { return t.CreatedAt },
		func(t *tenant.Tenant) string { return t.ID.String() })
	if filter == nil {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func matchesTenant(t *tenant.Tenant, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Name), search) || strings.Contains(t.Slug, search)
}

func copyTenant(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	if t.RootAdminID != nil {
		root := *t.RootAdminID
		c.RootAdminID = &root
	}
	if t.PlanPackageID != nil {
		plan := *t.PlanPackageID
		c.PlanPackageID = &plan
	}
	return &c
}
