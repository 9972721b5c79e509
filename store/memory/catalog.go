package memory

import (
	"context"
	"fmt"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

func (s *Store) CreateModule(_ context.Context, m *catalog.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.modules {
		if existing.TenantID == m.TenantID && existing.Slug == m.Slug {
			return fmt.Errorf("module %q: %w", m.Slug, store.ErrConflict)
		}
	}
	s.stamp(&m.CreatedAt, &m.UpdatedAt)
	s.modules[m.ID.String()] = copyModule(m)
	return nil
}

func (s *Store) GetModule(_ context.Context, moduleID id.ModuleID) (*catalog.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[moduleID.String()]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
	}
	return copyModule(m), nil
}

func (s *Store) GetModuleBySlug(_ context.Context, tenantID, slug string) (*catalog.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.modules {
		if m.TenantID == tenantID && m.Slug == slug {
			return copyModule(m), nil
		}
	}
	return nil, fmt.Errorf("module slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) UpdateModule(_ context.Context, m *catalog.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[m.ID.String()]; !ok {
		return fmt.Errorf("module %s: %w", m.ID, store.ErrNotFound)
	}
	s.stamp(nil, &m.UpdatedAt)
	s.modules[m.ID.String()] = copyModule(m)
	return nil
}

func (s *Store) DeleteModule(_ context.Context, moduleID id.ModuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[moduleID.String()]; !ok {
		return fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
	}
	delete(s.modules, moduleID.String())
	return nil
}

func (s *Store) ListModules(_ context.Context, filter *catalog.ListFilter) ([]*catalog.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tenantID string
	if filter != nil {
		tenantID = filter.TenantID
	}
	list := make([]catalog.Module, 0, len(s.modules))
	for _, m := range s.modules {
		if m.TenantID != "" && m.TenantID != tenantID {
			continue
		}
		list = append(list, *copyModule(m))
	}
	catalog.SortModules(list)

	result := make([]*catalog.Module, len(list))
	for i := range list {
		result[i] = &list[i]
	}
	if filter == nil {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func copyModule(m *catalog.Module) *catalog.Module {
	c := *m
	c.Name = copyText(m.Name)
	c.Actions = make([]catalog.Action, len(m.Actions))
	for i, a := range m.Actions {
		a.Name = copyText(a.Name)
		c.Actions[i] = a
	}
	return &c
}

func copyText(t catalog.LocalizedText) catalog.LocalizedText {
	if t == nil {
		return nil
	}
	c := make(catalog.LocalizedText, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
