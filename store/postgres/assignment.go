package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	a.CreatedAt = now()
	if _, err := s.pgdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		return wrapWrite("create assignment", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", assID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	res, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", assID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("castellan: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.pgdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		rid, err := id.ParseRoleID(m.RoleID)
		if err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) CountAssignmentsForRole(ctx context.Context, roleID id.RoleID) (int64, error) {
	count, err := s.pgdb.NewSelect((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: count assignments: %w", err)
	}
	return count, nil
}

// ReassignRole drops assignments of from whose user already holds to, then
// moves the rest, in one transaction.
func (s *Store) ReassignRole(ctx context.Context, from, to id.RoleID) (int64, error) {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("castellan: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	dropped, err := tx.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", from.String()).
		Where("(tenant_id, user_id) IN (SELECT tenant_id, user_id FROM castellan_assignments WHERE role_id = ?)", to.String()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}
	moved, err := tx.NewUpdate((*assignmentModel)(nil)).
		Set("role_id = ?", to.String()).
		Where("role_id = ?", from.String()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("castellan: commit tx: %w", err)
	}

	nd, err := dropped.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role rows: %w", err)
	}
	nm, err := moved.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("castellan: reassign role rows: %w", err)
	}
	return nd + nm, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete assignments by role: %w", err)
	}
	return nil
}
