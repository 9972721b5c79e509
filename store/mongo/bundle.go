package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

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
	if _, err := s.mdb.NewInsert(packageToModel(p)).Exec(ctx); err != nil {
		return wrapWrite("create package", err)
	}
	return nil
}

func (s *Store) GetPackage(ctx context.Context, pkgID id.PackageID) (*bundle.Package, error) {
	var m packageModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": pkgID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get package: %w", err)
	}
	return packageFromModel(&m), nil
}

func (s *Store) UpdatePackage(ctx context.Context, p *bundle.Package) error {
	p.UpdatedAt = now()
	m := packageToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: update package: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("package %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePackage(ctx context.Context, pkgID id.PackageID) error {
	res, err := s.mdb.NewDelete((*packageModel)(nil)).
		Filter(bson.M{"_id": pkgID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete package: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("package %s: %w", pkgID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPackages(ctx context.Context, filter *bundle.ListFilter) ([]*bundle.Package, error) {
	var models []packageModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f = visibleTo(filter.TenantID)
		}
		if filter.Type != "" {
			f["type"] = string(filter.Type)
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
