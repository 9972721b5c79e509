package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
)

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.TenantID == r.TenantID && existing.Slug == r.Slug {
			return fmt.Errorf("role %q: %w", r.Slug, store.ErrConflict)
		}
	}
	s.stamp(&r.CreatedAt, &r.UpdatedAt)
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleBySlug(_ context.Context, tenantID, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.TenantID == tenantID && r.Slug == slug {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	s.stamp(nil, &r.UpdatedAt)
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.TenantID != "" && r.TenantID != filter.TenantID {
				continue
			}
			if filter.IsSystem != nil && r.IsSystem != *filter.IsSystem {
				continue
			}
			if filter.Search != "" && !matchesRole(r, filter.Search) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	sortByCreated(result,
		func(r *role.Role) time.Time { return r.CreatedAt },
		func(r *role.Role) string { return r.ID.String() })
	if filter == nil {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *Store) ListRolePermissions(_ context.Context, roleID id.RoleID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return r.Permissions.Keys(), nil
}

func matchesRole(r *role.Role, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(r.Slug, search) {
		return true
	}
	for _, name := range r.Name {
		if strings.Contains(strings.ToLower(name), search) {
			return true
		}
	}
	return false
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	c.Name = copyText(r.Name)
	c.Permissions = r.Permissions.Clone()
	return &c
}
