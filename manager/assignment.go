package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// AssignRole grants roleID to userID inside tenantID. The role must belong
// to the same tenant.
func (m *Manager) AssignRole(ctx context.Context, tenantID, userID string, roleID id.RoleID, grantedBy string) (*assignment.Assignment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("manager: user id is required")
	}
	if _, err := m.writableTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	r, err := m.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, notFound(castellan.ErrRoleNotFound, err)
	}
	if err := tenant.RequireTenantAccess(tenantID, r.TenantID); err != nil {
		return nil, err
	}

	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		TenantID:  tenantID,
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
	}
	if err := m.store.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", castellan.ErrDuplicateAssignment, err)
		}
		return nil, fmt.Errorf("manager: create assignment: %w", err)
	}

	m.engine.InvalidateUserCache(ctx, userID, tenantID)
	m.plugins.EmitRoleAssigned(ctx, a)
	return a, nil
}

// UnassignRole revokes roleID from userID inside tenantID.
func (m *Manager) UnassignRole(ctx context.Context, tenantID, userID string, roleID id.RoleID) error {
	list, err := m.store.ListAssignments(ctx, &assignment.ListFilter{
		TenantID: tenantID,
		UserID:   userID,
		RoleID:   &roleID,
	})
	if err != nil {
		return fmt.Errorf("manager: list assignments: %w", err)
	}
	if len(list) == 0 {
		return fmt.Errorf("%w: %s is not assigned to %q", castellan.ErrNotFound, roleID, userID)
	}
	for _, a := range list {
		if err := m.store.DeleteAssignment(ctx, a.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("manager: delete assignment: %w", err)
		}
	}

	m.engine.InvalidateUserCache(ctx, userID, tenantID)
	for _, a := range list {
		m.plugins.EmitRoleUnassigned(ctx, a)
	}
	return nil
}

// RemoveAssignment deletes a single assignment by ID.
func (m *Manager) RemoveAssignment(ctx context.Context, assID id.AssignmentID) error {
	a, err := m.store.GetAssignment(ctx, assID)
	if err != nil {
		return fmt.Errorf("manager: get assignment: %w", err)
	}
	if err := m.store.DeleteAssignment(ctx, assID); err != nil {
		return fmt.Errorf("manager: delete assignment: %w", err)
	}
	m.engine.InvalidateUserCache(ctx, a.UserID, a.TenantID)
	m.plugins.EmitRoleUnassigned(ctx, a)
	return nil
}
