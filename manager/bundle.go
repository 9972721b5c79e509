package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
)

// CreatePackage validates and persists a permission package.
func (m *Manager) CreatePackage(ctx context.Context, p *bundle.Package) error {
	if err := m.checkPackage(ctx, p); err != nil {
		return err
	}
	if p.ID.IsNil() {
		p.ID = id.NewPackageID()
	}
	if err := m.store.CreatePackage(ctx, p); err != nil {
		return fmt.Errorf("manager: create package: %w", err)
	}
	return nil
}

// UpdatePackage persists changes to a package. Roles that already merged
// the package keep their copy; affiliates using it as a plan ceiling see
// the change on their next resolution.
func (m *Manager) UpdatePackage(ctx context.Context, p *bundle.Package) error {
	if _, err := m.store.GetPackage(ctx, p.ID); err != nil {
		return notFound(castellan.ErrPackageNotFound, err)
	}
	if err := m.checkPackage(ctx, p); err != nil {
		return err
	}
	if err := m.store.UpdatePackage(ctx, p); err != nil {
		return notFound(castellan.ErrPackageNotFound, err)
	}
	m.engine.ClearCache(ctx)
	return nil
}

// SetPackageActive activates or retires a package.
func (m *Manager) SetPackageActive(ctx context.Context, pkgID id.PackageID, active bool) error {
	p, err := m.store.GetPackage(ctx, pkgID)
	if err != nil {
		return notFound(castellan.ErrPackageNotFound, err)
	}
	if p.IsActive == active {
		return nil
	}
	p.IsActive = active
	if err := m.store.UpdatePackage(ctx, p); err != nil {
		return notFound(castellan.ErrPackageNotFound, err)
	}
	m.engine.ClearCache(ctx)
	return nil
}

func (m *Manager) checkPackage(ctx context.Context, p *bundle.Package) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("manager: package name is required")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", castellan.ErrInvalidAdminType, p.Type)
	}
	if p.TenantID != "" {
		if _, err := m.writableTenant(ctx, p.TenantID); err != nil {
			return err
		}
	}
	if p.Permissions == nil {
		p.Permissions = make(permset.Set)
	}
	if err := m.validate(ctx, p.TenantID, p.Permissions); err != nil {
		return fmt.Errorf("manager: package %q: %w", p.Name, err)
	}
	return nil
}
