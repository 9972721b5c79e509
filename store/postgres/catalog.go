package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

// ──────────────────────────────────────────────────
// Catalog operations
// ──────────────────────────────────────────────────

func (s *Store) CreateModule(ctx context.Context, m *catalog.Module) error {
	t := now()
	m.CreatedAt = t
	m.UpdatedAt = t
	mm, actions := moduleToModel(m)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewInsert(mm).Exec(ctx); err != nil {
		return wrapWrite("create module", err)
	}
	if len(actions) > 0 {
		if _, err := tx.NewInsert(&actions).Exec(ctx); err != nil {
			return wrapWrite("create module actions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, moduleID id.ModuleID) (*catalog.Module, error) {
	m := new(moduleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", moduleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module: %w", err)
	}
	return s.withActions(ctx, m)
}

func (s *Store) GetModuleBySlug(ctx context.Context, tenantID, slug string) (*catalog.Module, error) {
	m := new(moduleModel)
	err := s.pgdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("module slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get module by slug: %w", err)
	}
	return s.withActions(ctx, m)
}

func (s *Store) withActions(ctx context.Context, m *moduleModel) (*catalog.Module, error) {
	var actions []actionModel
	err := s.pgdb.NewSelect(&actions).
		Where("module_id = ?", m.ID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list module actions: %w", err)
	}
	return moduleFromModel(m, actions), nil
}

// UpdateModule replaces the module row and its full action list.
func (s *Store) UpdateModule(ctx context.Context, m *catalog.Module) error {
	m.UpdatedAt = now()
	mm, actions := moduleToModel(m)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewUpdate(mm).WherePK().Exec(ctx)
	if err != nil {
		return wrapWrite("update module", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("module %s: %w", m.ID, store.ErrNotFound)
	}
	if _, err := tx.NewDelete((*actionModel)(nil)).Where("module_id = ?", mm.ID).Exec(ctx); err != nil {
		return fmt.Errorf("castellan: clear module actions: %w", err)
	}
	if len(actions) > 0 {
		if _, err := tx.NewInsert(&actions).Exec(ctx); err != nil {
			return wrapWrite("set module actions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("castellan: commit tx: %w", err)
	}
	return nil
}

func (s *Store) DeleteModule(ctx context.Context, moduleID id.ModuleID) error {
	res, err := s.pgdb.NewDelete((*moduleModel)(nil)).
		Where("id = ?", moduleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete module: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("module %s: %w", moduleID, store.ErrNotFound)
	}
	return nil
}

// ListModules loads the visible modules and all of their actions in two
// queries.
func (s *Store) ListModules(ctx context.Context, filter *catalog.ListFilter) ([]*catalog.Module, error) {
	var tenantID string
	if filter != nil {
		tenantID = filter.TenantID
	}

	var models []moduleModel
	q := s.pgdb.NewSelect(&models).
		Where("(tenant_id = '' OR tenant_id = ?)", tenantID).
		OrderExpr("sort_order ASC, slug ASC")
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list modules: %w", err)
	}
	if len(models) == 0 {
		return []*catalog.Module{}, nil
	}

	var actions []actionModel
	err := s.pgdb.NewSelect(&actions).
		Where("module_id IN (SELECT id FROM castellan_modules WHERE tenant_id = '' OR tenant_id = ?)", tenantID).
		OrderExpr("module_id ASC, position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list actions: %w", err)
	}
	byModule := make(map[string][]actionModel, len(models))
	for _, a := range actions {
		byModule[a.ModuleID] = append(byModule[a.ModuleID], a)
	}

	result := make([]*catalog.Module, len(models))
	for i := range models {
		result[i] = moduleFromModel(&models[i], byModule[models[i].ID])
	}
	return result, nil
}
