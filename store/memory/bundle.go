package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

func (s *Store) CreatePackage(_ context.Context, p *bundle.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ID.String()]; ok {
		return fmt.Errorf("package %s: %w", p.ID, store.ErrConflict)
	}
	s.stamp(&p.CreatedAt, &p.UpdatedAt)
	s.packages[p.ID.String()] = copyPackage(p)
	return nil
}

func (s *Store) GetPackage(_ context.Context, pkgID id.PackageID) (*bundle.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[pkgID.String()]
	if !ok {
		return nil, fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
	}
	return copyPackage(p), nil
}

func (s *Store) UpdatePackage(_ context.Context, p *bundle.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ID.String()]; !ok {
		return fmt.Errorf("package %s: %w", p.ID, store.ErrNotFound)
	}
	s.stamp(nil, &p.UpdatedAt)
	s.packages[p.ID.String()] = copyPackage(p)
	return nil
}

func (s *Store) DeletePackage(_ context.Context, pkgID id.PackageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[pkgID.String()]; !ok {
		return fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
	}
	delete(s.packages, pkgID.String())
	return nil
}

func (s *Store) ListPackages(_ context.Context, filter *bundle.ListFilter) ([]*bundle.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*bundle.Package, 0, len(s.packages))
	for _, p := range s.packages {
		if filter != nil {
			if filter.TenantID != "" && p.TenantID != "" && p.TenantID != filter.TenantID {
				continue
			}
			if filter.Type != "" && p.Type != filter.Type {
				continue
			}
			if filter.IsActive != nil && p.IsActive != *filter.IsActive {
				continue
			}
		}
		result = append(result, copyPackage(p))
	}
	sortByCreated(result,
		func(p *bundle.Package) time.Time { return p.CreatedAt },
		func(p *bundle.Package) string { return p.ID.String() })
	if filter == nil {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func copyPackage(p *bundle.Package) *bundle.Package {
	c := *p
	c.Permissions = p.Permissions.Clone()
	return &c
}
