package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/manager"
	"github.com/xraph/castellan/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a tenant role. Unknown modules or actions reject the save."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns details of a specific role."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists roles with optional filters."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", []*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId/permissions", a.updateRolePermissions,
		forge.WithSummary("Replace role permissions"),
		forge.WithDescription("Replaces the role's permission set and returns the difference."),
		forge.WithOperationID("updateRolePermissions"),
		forge.WithRequestSchema(UpdatePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission diff", DiffResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/:roleId/packages", a.applyPackage,
		forge.WithSummary("Apply package"),
		forge.WithDescription("Merges an active permission package into the role."),
		forge.WithOperationID("applyPackage"),
		forge.WithRequestSchema(ApplyPackageRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission diff", DiffResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/roles/:roleId", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes a role. Fails while assigned unless reassign_to names a fallback role."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	if req.TenantID == "" || req.Slug == "" {
		return nil, forge.BadRequest("tenant_id and slug are required")
	}

	r := &role.Role{
		TenantID:    req.TenantID,
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    req.IsSystem,
		Permissions: req.Permissions,
	}
	if err := a.mgr.CreateRole(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*role.Role, error) {
	roleID, err := parseParam(ctx, "roleId", id.ParseRoleID)
	if err != nil {
		return nil, err
	}

	r, err := a.eng.Store().GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) ([]*role.Role, error) {
	filter := &role.ListFilter{
		TenantID: req.TenantID,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	roles, err := a.eng.Store().ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return roles, ctx.JSON(http.StatusOK, roles)
}

func (a *API) updateRolePermissions(ctx forge.Context, req *UpdatePermissionsRequest) (*DiffResponse, error) {
	roleID, err := parseParam(ctx, "roleId", id.ParseRoleID)
	if err != nil {
		return nil, err
	}

	diff, err := a.mgr.UpdateRolePermissions(ctx.Context(), roleID, req.Permissions)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toDiffResponse(diff)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) applyPackage(ctx forge.Context, req *ApplyPackageRequest) (*DiffResponse, error) {
	roleID, err := parseParam(ctx, "roleId", id.ParseRoleID)
	if err != nil {
		return nil, err
	}
	pkgID, err := id.ParsePackageID(req.PackageID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid package_id: %v", err))
	}

	diff, err := a.mgr.ApplyPackage(ctx.Context(), roleID, pkgID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toDiffResponse(diff)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) deleteRole(ctx forge.Context, req *DeleteRoleRequest) (*struct{}, error) {
	roleID, err := parseParam(ctx, "roleId", id.ParseRoleID)
	if err != nil {
		return nil, err
	}

	policy := manager.BlockIfAssigned()
	fallback, err := parseOptional("reassign_to", req.ReassignTo, id.ParseRoleID)
	if err != nil {
		return nil, err
	}
	if fallback != nil {
		policy = manager.ReassignTo(*fallback)
	}

	if err := a.mgr.DeleteRole(ctx.Context(), roleID, policy); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
