package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

// ──────────────────────────────────────────────────
// Package operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePackage(ctx context.Context, p *bundle.Package) error {
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	if _, err := s.pgdb.NewInsert(packageToModel(p)).Exec(ctx); err != nil {
		return wrapWrite("create package", err)
	}
	return nil
}

func (s *Store) GetPackage(ctx context.Context, pkgID id.PackageID) (*bundle.Package, error) {
	m := new(packageModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", pkgID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get package: %w", err)
	}
	return packageFromModel(m), nil
}

func (s *Store) UpdatePackage(ctx context.Context, p *bundle.Package) error {
	p.UpdatedAt = now()
	res, err := s.pgdb.NewUpdate(packageToModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: update package: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("package %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePackage(ctx context.Context, pkgID id.PackageID) error {
	res, err := s.pgdb.NewDelete((*packageModel)(nil)).
		Where("id = ?", pkgID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete package: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPackages(ctx context.Context, filter *bundle.ListFilter) ([]*bundle.Package, error) {
	var models []packageModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("(tenant_id = '' OR tenant_id = ?)", filter.TenantID)
		}
		if filter.Type != "" {
			q = q.Where("type = ?", string(filter.Type))
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list packages: %w", err)
	}
	result := make([]*bundle.Package, len(models))
	for i := range models {
		result[i] = packageFromModel(&models[i])
	}
	return result, nil
}
