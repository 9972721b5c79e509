package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Permission check"),
		forge.WithDescription("Evaluates whether the user holds any, or all, of the permissions."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/menu", a.menu,
		forge.WithSummary("Accessible modules"),
		forge.WithDescription("Returns the modules the user holds at least one action in, in menu order."),
		forge.WithOperationID("authzMenu"),
		forge.WithRequestSchema(MenuRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Menu", MenuResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/effective", a.effective,
		forge.WithSummary("Effective permissions"),
		forge.WithDescription("Returns the user's effective permission keys. Fails when the store cannot be reached."),
		forge.WithOperationID("authzEffective"),
		forge.WithRequestSchema(MenuRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Effective permissions", EffectiveResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.UserID == "" || req.TenantID == "" {
		return nil, forge.BadRequest("user_id and tenant_id are required")
	}
	if len(req.Permissions) == 0 {
		return nil, forge.BadRequest("permissions cannot be empty")
	}

	checks := make([]castellan.Check, len(req.Permissions))
	for i, key := range req.Permissions {
		c, err := castellan.ParseCheck(key)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid permission %q: %v", key, err))
		}
		checks[i] = c
	}

	pc := req.PermissionContext()
	resp := &CheckResponse{Results: make(map[string]bool, len(checks))}
	if req.RequireAll {
		resp.Allowed = a.eng.HasAllPermissions(ctx.Context(), pc, checks)
	} else {
		resp.Allowed = a.eng.HasAnyPermission(ctx.Context(), pc, checks)
	}
	for _, c := range checks {
		resp.Results[c.Key()] = a.eng.HasPermission(ctx.Context(), pc, c)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) menu(ctx forge.Context, req *MenuRequest) (*MenuResponse, error) {
	if req.UserID == "" || req.TenantID == "" {
		return nil, forge.BadRequest("user_id and tenant_id are required")
	}

	resp := &MenuResponse{Modules: a.eng.AccessibleModules(ctx.Context(), req.PermissionContext())}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) effective(ctx forge.Context, req *MenuRequest) (*EffectiveResponse, error) {
	keys, err := a.eng.Effective(ctx.Context(), req.PermissionContext())
	if err != nil {
		return nil, mapError(err)
	}

	resp := &EffectiveResponse{Permissions: keys.Slice()}
	return resp, ctx.JSON(http.StatusOK, resp)
}
