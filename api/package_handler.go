package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/tenant"
)

func (a *API) registerPackageRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("packages"))

	if err := g.POST("/packages", a.createPackage,
		forge.WithSummary("Create package"),
		forge.WithDescription("Creates a reusable permission package. New packages start active."),
		forge.WithOperationID("createPackage"),
		forge.WithRequestSchema(CreatePackageRequest{}),
		forge.WithCreatedResponse(&bundle.Package{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/packages/:packageId", a.getPackage,
		forge.WithSummary("Get package"),
		forge.WithOperationID("getPackage"),
		forge.WithResponseSchema(http.StatusOK, "Package details", &bundle.Package{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/packages", a.listPackages,
		forge.WithSummary("List packages"),
		forge.WithOperationID("listPackages"),
		forge.WithRequestSchema(ListPackagesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Package list", []*bundle.Package{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/packages/:packageId", a.updatePackage,
		forge.WithSummary("Update package"),
		forge.WithDescription("Renames a package or replaces its permissions."),
		forge.WithOperationID("updatePackage"),
		forge.WithRequestSchema(UpdatePackageRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated package", &bundle.Package{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.PUT("/packages/:packageId/status", a.setPackageActive,
		forge.WithSummary("Activate or retire package"),
		forge.WithOperationID("setPackageActive"),
		forge.WithRequestSchema(SetActiveRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createPackage(ctx forge.Context, req *CreatePackageRequest) (*bundle.Package, error) {
	if req.Name == "" || req.Type == "" {
		return nil, forge.BadRequest("name and type are required")
	}

	p := &bundle.Package{
		TenantID:    req.TenantID,
		Name:        req.Name,
		Type:        tenant.AdminType(req.Type),
		Permissions: req.Permissions,
		IsActive:    true,
	}
	if err := a.mgr.CreatePackage(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getPackage(ctx forge.Context, _ *GetPackageRequest) (*bundle.Package, error) {
	pkgID, err := parseParam(ctx, "packageId", id.ParsePackageID)
	if err != nil {
		return nil, err
	}

	p, err := a.eng.Store().GetPackage(ctx.Context(), pkgID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) listPackages(ctx forge.Context, req *ListPackagesRequest) ([]*bundle.Package, error) {
	filter := &bundle.ListFilter{
		TenantID: req.TenantID,
		Type:     tenant.AdminType(req.Type),
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	pkgs, err := a.eng.Store().ListPackages(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return pkgs, ctx.JSON(http.StatusOK, pkgs)
}

func (a *API) updatePackage(ctx forge.Context, req *UpdatePackageRequest) (*bundle.Package, error) {
	pkgID, err := parseParam(ctx, "packageId", id.ParsePackageID)
	if err != nil {
		return nil, err
	}

	p, err := a.eng.Store().GetPackage(ctx.Context(), pkgID)
	if err != nil {
		return nil, mapError(err)
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Permissions != nil {
		p.Permissions = req.Permissions
	}

	if err := a.mgr.UpdatePackage(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) setPackageActive(ctx forge.Context, req *SetActiveRequest) (*struct{}, error) {
	pkgID, err := parseParam(ctx, "packageId", id.ParsePackageID)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.SetPackageActive(ctx.Context(), pkgID, req.IsActive); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
