package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

func (s *Store) CreateModule(ctx context.Context, m *catalog.Module) error {
	t := now()
	m.CreatedAt = t
	m.UpdatedAt = t
	if _, err := s.mdb.NewInsert(moduleToModel(m)).Exec(ctx); err != nil {
		return wrapWrite("create module", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, moduleID id.ModuleID) (*catalog.Module, error) {
	var m moduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": moduleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module: %w", err)
	}
	return moduleFromModel(&m), nil
}

func (s *Store) GetModuleBySlug(ctx context.Context, tenantID, slug string) (*catalog.Module, error) {
	var m moduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("module slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module by slug: %w", err)
	}
	return moduleFromModel(&m), nil
}

func (s *Store) UpdateModule(ctx context.Context, m *catalog.Module) error {
	m.UpdatedAt = now()
	mm := moduleToModel(m)
	res, err := s.mdb.NewUpdate(mm).
		Filter(bson.M{"_id": mm.ID}).
		Exec(ctx)
	if err != nil {
		return wrapWrite("update module", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("module %s: %w", m.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteModule(ctx context.Context, moduleID id.ModuleID) error {
	res, err := s.mdb.NewDelete((*moduleModel)(nil)).
		Filter(bson.M{"_id": moduleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete module: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListModules(ctx context.Context, filter *catalog.ListFilter) ([]*catalog.Module, error) {
	var models []moduleModel
	var tenantID string
	if filter != nil {
		tenantID = filter.TenantID
	}
	q := s.mdb.NewFind(&models).
		Filter(visibleTo(tenantID)).
		Sort(bson.D{{Key: "sort_order", Value: 1}, {Key: "slug", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list modules: %w", err)
	}
	result := make([]*catalog.Module, len(models))
	for i := range models {
		result[i] = moduleFromModel(&models[i])
	}
	return result, nil
}
