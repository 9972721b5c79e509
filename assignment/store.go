package assignment

import (
	"context"

	"github.com/xraph/castellan/id"
)

// Store defines persistence operations for role assignments.
type Store interface {
	// CreateAssignment persists a new assignment. Assigning the same role to
	// the same user twice is rejected.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, assID id.AssignmentID) (*Assignment, error)

	// DeleteAssignment removes an assignment by ID.
	DeleteAssignment(ctx context.Context, assID id.AssignmentID) error

	// ListAssignments returns assignments matching the filter.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// ListRolesForUser returns the IDs of roles assigned to a user in a
	// tenant.
	ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error)

	// CountAssignmentsForRole returns how many users hold a role.
	CountAssignmentsForRole(ctx context.Context, roleID id.RoleID) (int64, error)

	// ReassignRole moves every assignment of from onto to and returns the
	// number of assignments moved. Users already holding to keep a single
	// assignment.
	ReassignRole(ctx context.Context, from, to id.RoleID) (int64, error)

	// DeleteAssignmentsByRole removes all assignments for a role.
	DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error
}
