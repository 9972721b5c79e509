package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/store"
)

// SeedResult counts what SeedCatalog wrote.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// SeedCatalog upserts modules by (tenant, slug). Existing modules keep their
// ID, and existing actions keep theirs when the slug matches. Every cached
// permission set is dropped afterwards.
//
// A batch that drops an action still granted by a stored role or package is
// refused before anything is written; the error wraps
// castellan.ErrInvalidCatalogReference and names each stale grant.
func (m *Manager) SeedCatalog(ctx context.Context, modules []catalog.Module) (SeedResult, error) {
	batch, err := prepareBatch(modules)
	if err != nil {
		return SeedResult{}, err
	}
	if err := m.checkOrphans(ctx, batch); err != nil {
		return SeedResult{}, err
	}

	res, err := m.seed(ctx, batch)
	if res.Created+res.Updated > 0 {
		m.engine.ClearCache(ctx)
	}
	if err != nil {
		return res, err
	}
	m.logger.Info("catalog seeded", "created", res.Created, "updated", res.Updated)
	return res, nil
}

// prepareBatch copies modules with normalized slugs so seeding never writes
// into the caller's action slices.
func prepareBatch(modules []catalog.Module) ([]catalog.Module, error) {
	batch := make([]catalog.Module, len(modules))
	for i, mod := range modules {
		mod.Slug = catalog.NormalizeSlug(mod.Slug)
		if mod.Slug == "" {
			return nil, fmt.Errorf("manager: module %d: slug is required", i)
		}
		mod.Actions = append([]catalog.Action(nil), mod.Actions...)
		for j := range mod.Actions {
			mod.Actions[j].Slug = catalog.NormalizeSlug(mod.Actions[j].Slug)
		}
		batch[i] = mod
	}
	return batch, nil
}

// checkOrphans refuses a batch whose modules drop pairs that a stored role
// or package still grants and that no other module of the grantee's tenant
// provides.
func (m *Manager) checkOrphans(ctx context.Context, batch []catalog.Module) error {
	dropped := make(map[string]permset.Set)
	for _, mod := range batch {
		existing, err := m.store.GetModuleBySlug(ctx, mod.TenantID, mod.Slug)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("manager: get module %q: %w", mod.Slug, err)
		}
		d := permset.Diff(
			permset.Universe([]catalog.Module{*existing}),
			permset.Universe([]catalog.Module{mod}),
		)
		if d.Removed.Len() > 0 {
			dropped[mod.TenantID] = permset.Merge(dropped[mod.TenantID], d.Removed)
		}
	}
	if len(dropped) == 0 {
		return nil
	}

	universes := make(map[string]permset.Set)
	var stale []error
	check := func(kind, name, tenantID string, granted permset.Set) error {
		candidates := permset.Intersect(granted, permset.Merge(dropped[""], dropped[tenantID]))
		if candidates.Len() == 0 {
			return nil
		}
		next, ok := universes[tenantID]
		if !ok {
			u, err := m.projectedUniverse(ctx, tenantID, batch)
			if err != nil {
				return err
			}
			universes[tenantID], next = u, u
		}
		for _, mod := range candidates.Modules() {
			for _, a := range candidates.Actions(mod) {
				if !next.Has(mod, a) {
					ref := &permset.ReferenceError{Module: mod, Action: a}
					stale = append(stale, fmt.Errorf("%s %q: %w", kind, name, ref))
				}
			}
		}
		return nil
	}

	roles, err := m.store.ListRoles(ctx, nil)
	if err != nil {
		return fmt.Errorf("manager: list roles: %w", err)
	}
	for _, r := range roles {
		if err := check("role", r.Slug, r.TenantID, r.Permissions); err != nil {
			return err
		}
	}

	pkgs, err := m.store.ListPackages(ctx, nil)
	if err != nil {
		return fmt.Errorf("manager: list packages: %w", err)
	}
	for _, p := range pkgs {
		if err := check("package", p.Name, p.TenantID, p.Permissions); err != nil {
			return err
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("manager: catalog change leaves stale grants: %w", errors.Join(stale...))
	}
	return nil
}

// projectedUniverse returns the Module x Action pairs tenantID would see
// once batch is written.
func (m *Manager) projectedUniverse(ctx context.Context, tenantID string, batch []catalog.Module) (permset.Set, error) {
	listed, err := m.store.ListModules(ctx, &catalog.ListFilter{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("manager: load catalog: %w", err)
	}

	type owned struct{ tenant, slug string }
	byKey := make(map[owned]catalog.Module, len(listed)+len(batch))
	for _, mod := range listed {
		byKey[owned{mod.TenantID, mod.Slug}] = *mod
	}
	for _, mod := range batch {
		if mod.TenantID == "" || mod.TenantID == tenantID {
			byKey[owned{mod.TenantID, mod.Slug}] = mod
		}
	}

	modules := make([]catalog.Module, 0, len(byKey))
	for _, mod := range byKey {
		modules = append(modules, mod)
	}
	return permset.Universe(modules), nil
}

func (m *Manager) seed(ctx context.Context, batch []catalog.Module) (SeedResult, error) {
	var res SeedResult
	for i := range batch {
		mod := batch[i]

		existing, err := m.store.GetModuleBySlug(ctx, mod.TenantID, mod.Slug)
		switch {
		case errors.Is(err, store.ErrNotFound):
			mod.Normalize()
			if err := m.store.CreateModule(ctx, &mod); err != nil {
				return res, fmt.Errorf("manager: create module %q: %w", mod.Slug, err)
			}
			res.Created++
		case err != nil:
			return res, fmt.Errorf("manager: get module %q: %w", mod.Slug, err)
		default:
			mod.ID = existing.ID
			mod.CreatedAt = existing.CreatedAt
			for j := range mod.Actions {
				a := &mod.Actions[j]
				if prev, ok := existing.Action(a.Slug); ok {
					a.ID = prev.ID
				}
			}
			mod.Normalize()
			if err := m.store.UpdateModule(ctx, &mod); err != nil {
				return res, fmt.Errorf("manager: update module %q: %w", mod.Slug, err)
			}
			res.Updated++
		}
	}
	return res, nil
}
