// Package api provides HTTP handlers for the castellan RBAC engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/manager"
)

// API wires all castellan HTTP handlers together.
type API struct {
	eng    *castellan.Engine
	mgr    *manager.Manager
	router forge.Router
}

// New creates an API from an Engine, its Manager and a Forge router.
func New(eng *castellan.Engine, mgr *manager.Manager, router forge.Router) *API {
	if mgr == nil {
		mgr = manager.New(eng)
	}
	return &API{eng: eng, mgr: mgr, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("castellan: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerCatalogRoutes,
		a.registerRoleRoutes,
		a.registerPackageRoutes,
		a.registerAssignmentRoutes,
		a.registerTenantRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
