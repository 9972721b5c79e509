package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/tenant"
)

func (a *API) registerTenantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tenants"))

	if err := g.POST("/tenants", a.createTenant,
		forge.WithSummary("Create tenant"),
		forge.WithDescription("Onboards a root tenant, or an affiliate under an active root."),
		forge.WithOperationID("createTenant"),
		forge.WithRequestSchema(CreateTenantRequest{}),
		forge.WithCreatedResponse(&tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenants/:tenantId", a.getTenant,
		forge.WithSummary("Get tenant"),
		forge.WithOperationID("getTenant"),
		forge.WithResponseSchema(http.StatusOK, "Tenant details", &tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenants", a.listTenants,
		forge.WithSummary("List tenants"),
		forge.WithOperationID("listTenants"),
		forge.WithRequestSchema(ListTenantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Tenant list", []*tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/tenants/:tenantId/verify", a.verifyTenant,
		forge.WithSummary("Verify tenant"),
		forge.WithOperationID("verifyTenant"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/tenants/:tenantId/status", a.setTenantActive,
		forge.WithSummary("Activate or deactivate tenant"),
		forge.WithDescription("Users of a deactivated tenant resolve to no permissions."),
		forge.WithOperationID("setTenantActive"),
		forge.WithRequestSchema(SetActiveRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.PUT("/tenants/:tenantId/plan", a.setTenantPlan,
		forge.WithSummary("Set tenant plan"),
		forge.WithDescription("Sets or clears the affiliate package capping the tenant's permissions."),
		forge.WithOperationID("setTenantPlan"),
		forge.WithRequestSchema(SetPlanRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTenant(ctx forge.Context, req *CreateTenantRequest) (*tenant.Tenant, error) {
	if req.Slug == "" || req.AdminType == "" {
		return nil, forge.BadRequest("slug and admin_type are required")
	}

	parent, err := parseOptional("root_admin_id", req.RootAdminID, id.ParseTenantID)
	if err != nil {
		return nil, err
	}
	plan, err := parseOptional("plan_package_id", req.PlanPackageID, id.ParsePackageID)
	if err != nil {
		return nil, err
	}

	t := &tenant.Tenant{
		Name:          req.Name,
		Slug:          req.Slug,
		AdminType:     tenant.AdminType(req.AdminType),
		RootAdminID:   parent,
		PlanPackageID: plan,
	}
	if err := a.mgr.CreateTenant(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getTenant(ctx forge.Context, _ *GetTenantRequest) (*tenant.Tenant, error) {
	tenantID, err := parseParam(ctx, "tenantId", id.ParseTenantID)
	if err != nil {
		return nil, err
	}

	t, err := a.eng.Store().GetTenant(ctx.Context(), tenantID)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) listTenants(ctx forge.Context, req *ListTenantsRequest) ([]*tenant.Tenant, error) {
	filter := &tenant.ListFilter{
		AdminType: tenant.AdminType(req.AdminType),
		Search:    req.Search,
		Limit:     defaultLimit(req.Limit),
		Offset:    req.Offset,
	}
	parent, err := parseOptional("root_admin_id", req.RootAdminID, id.ParseTenantID)
	if err != nil {
		return nil, err
	}
	filter.RootAdminID = parent

	list, err := a.eng.Store().ListTenants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return list, ctx.JSON(http.StatusOK, list)
}

func (a *API) verifyTenant(ctx forge.Context, _ *GetTenantRequest) (*struct{}, error) {
	tenantID, err := parseParam(ctx, "tenantId", id.ParseTenantID)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.VerifyTenant(ctx.Context(), tenantID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) setTenantActive(ctx forge.Context, req *SetActiveRequest) (*struct{}, error) {
	tenantID, err := parseParam(ctx, "tenantId", id.ParseTenantID)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.SetTenantActive(ctx.Context(), tenantID, req.IsActive); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) setTenantPlan(ctx forge.Context, req *SetPlanRequest) (*struct{}, error) {
	tenantID, err := parseParam(ctx, "tenantId", id.ParseTenantID)
	if err != nil {
		return nil, err
	}
	plan, err := parseOptional("plan_package_id", req.PlanPackageID, id.ParsePackageID)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.SetTenantPlan(ctx.Context(), tenantID, plan); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
