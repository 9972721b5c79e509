package catalog

import (
	"context"

	"github.com/xraph/castellan/id"
)

// Store defines persistence operations for catalog modules. Actions are
// owned by their module and persisted with it.
type Store interface {
	// CreateModule persists a new module and its actions.
	CreateModule(ctx context.Context, m *Module) error

	// GetModule retrieves a module by ID.
	GetModule(ctx context.Context, moduleID id.ModuleID) (*Module, error)

	// GetModuleBySlug retrieves a module by tenant and slug.
	GetModuleBySlug(ctx context.Context, tenantID, slug string) (*Module, error)

	// UpdateModule persists changes to a module and its actions.
	UpdateModule(ctx context.Context, m *Module) error

	// DeleteModule removes a module by ID.
	DeleteModule(ctx context.Context, moduleID id.ModuleID) error

	// ListModules returns modules visible to the filter's tenant.
	ListModules(ctx context.Context, filter *ListFilter) ([]*Module, error)
}
