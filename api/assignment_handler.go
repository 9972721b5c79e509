package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/assignments", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a tenant role to a user. The user's cached permissions are dropped."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/assignments/:assignmentId", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Removes a role assignment."),
		forge.WithOperationID("unassignRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/assignments", a.listAssignments,
		forge.WithSummary("List assignments"),
		forge.WithOperationID("listAssignments"),
		forge.WithRequestSchema(ListAssignmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", []*assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId/roles", a.listUserRoles,
		forge.WithSummary("List user roles"),
		forge.WithDescription("Returns the IDs of roles assigned to a user in a tenant."),
		forge.WithOperationID("listUserRoles"),
		forge.WithRequestSchema(UserRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role IDs", []string{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*assignment.Assignment, error) {
	if req.TenantID == "" || req.UserID == "" || req.RoleID == "" {
		return nil, forge.BadRequest("tenant_id, user_id, and role_id are required")
	}

	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	ass, err := a.mgr.AssignRole(ctx.Context(), req.TenantID, req.UserID, roleID, req.GrantedBy)
	if err != nil {
		return nil, mapError(err)
	}

	return ass, ctx.JSON(http.StatusCreated, ass)
}

func (a *API) unassignRole(ctx forge.Context, _ *GetAssignmentRequest) (*struct{}, error) {
	assID, err := parseParam(ctx, "assignmentId", id.ParseAssignmentID)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.RemoveAssignment(ctx.Context(), assID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listAssignments(ctx forge.Context, req *ListAssignmentsRequest) ([]*assignment.Assignment, error) {
	filter := &assignment.ListFilter{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}
	roleID, err := parseOptional("role_id", req.RoleID, id.ParseRoleID)
	if err != nil {
		return nil, err
	}
	filter.RoleID = roleID

	list, err := a.eng.Store().ListAssignments(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return list, ctx.JSON(http.StatusOK, list)
}

func (a *API) listUserRoles(ctx forge.Context, req *UserRolesRequest) ([]string, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}

	roleIDs, err := a.eng.Store().ListRolesForUser(ctx.Context(), req.TenantID, ctx.Param("userId"))
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]string, len(roleIDs))
	for i, rid := range roleIDs {
		out[i] = rid.String()
	}
	return out, ctx.JSON(http.StatusOK, out)
}
