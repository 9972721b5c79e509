package bundle

import (
	"context"

	"github.com/xraph/castellan/id"
)

// Store defines persistence operations for permission packages.
type Store interface {
	// CreatePackage persists a new package.
	CreatePackage(ctx context.Context, p *Package) error

	// GetPackage retrieves a package by ID.
	GetPackage(ctx context.Context, pkgID id.PackageID) (*Package, error)

	// UpdatePackage persists changes to a package.
	UpdatePackage(ctx context.Context, p *Package) error

	// DeletePackage removes a package by ID.
	DeletePackage(ctx context.Context, pkgID id.PackageID) error

	// ListPackages returns packages matching the filter.
	ListPackages(ctx context.Context, filter *ListFilter) ([]*Package, error)
}
