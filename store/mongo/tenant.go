package mongo

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// ──────────────────────────────────────────────────
// Tenant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	if _, err := s.mdb.NewInsert(tenantToModel(t)).Exec(ctx); err != nil {
		return wrapWrite("create tenant", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	var m tenantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tenantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get tenant: %w", err)
	}
	return tenantFromModel(&m), nil
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	var m tenantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("tenant slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get tenant by slug: %w", err)
	}
	return tenantFromModel(&m), nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	t.UpdatedAt = now()
	m := tenantToModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrapWrite("update tenant", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListTenants(ctx context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	var models []tenantModel
	f := bson.M{}
	if filter != nil {
		if filter.AdminType != "" {
			f["admin_type"] = string(filter.AdminType)
		}
		if filter.RootAdminID != nil {
			f["root_admin_id"] = filter.RootAdminID.String()
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
		if filter.Search != "" {
			pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
			f["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"slug": pattern}}
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
		return nil, fmt.Errorf("castellan: list tenants: %w", err)
	}
	result := make([]*tenant.Tenant, len(models))
	for i := range models {
		result[i] = tenantFromModel(&models[i])
	}
	return result, nil
}
