package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/manager"
	"github.com/xraph/castellan/permset"
)

func (a *API) registerCatalogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("catalog"))

	if err := g.GET("/modules", a.listModules,
		forge.WithSummary("List modules"),
		forge.WithDescription("Lists platform modules plus those owned by the tenant, in menu order."),
		forge.WithOperationID("listModules"),
		forge.WithRequestSchema(ListModulesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Module list", []catalog.Module{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/modules/seed", a.seedCatalog,
		forge.WithSummary("Seed catalog"),
		forge.WithDescription("Upserts modules by slug and drops every cached permission set."),
		forge.WithOperationID("seedCatalog"),
		forge.WithRequestSchema(SeedCatalogRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Seed result", manager.SeedResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/permissions/validate", a.validatePermissions,
		forge.WithSummary("Validate permissions"),
		forge.WithDescription("Reports every module and action in the set that the catalog does not define."),
		forge.WithOperationID("validatePermissions"),
		forge.WithRequestSchema(ValidateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Validation", permset.Validation{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listModules(ctx forge.Context, req *ListModulesRequest) ([]catalog.Module, error) {
	listed, err := a.eng.Store().ListModules(ctx.Context(), &catalog.ListFilter{TenantID: req.TenantID})
	if err != nil {
		return nil, mapError(err)
	}

	modules := make([]catalog.Module, len(listed))
	for i, m := range listed {
		modules[i] = *m
	}
	catalog.SortModules(modules)
	return modules, ctx.JSON(http.StatusOK, modules)
}

func (a *API) seedCatalog(ctx forge.Context, req *SeedCatalogRequest) (*manager.SeedResult, error) {
	if len(req.Modules) == 0 {
		return nil, forge.BadRequest("modules cannot be empty")
	}

	res, err := a.mgr.SeedCatalog(ctx.Context(), req.Modules)
	if err != nil {
		return nil, mapError(err)
	}
	return &res, ctx.JSON(http.StatusOK, res)
}

func (a *API) validatePermissions(ctx forge.Context, req *ValidateRequest) (*permset.Validation, error) {
	v, err := a.mgr.Validate(ctx.Context(), req.TenantID, req.Permissions)
	if err != nil {
		return nil, mapError(err)
	}
	return &v, ctx.JSON(http.StatusOK, v)
}
