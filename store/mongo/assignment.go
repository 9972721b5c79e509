package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	a.CreatedAt = now()
	if _, err := s.mdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		return wrapWrite("create assignment", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": assID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("castellan: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": assID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete assignment: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("castellan: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		if rid, err := id.ParseRoleID(m.RoleID); err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) CountAssignmentsForRole(ctx context.Context, roleID id.RoleID) (int64, error) {
	count, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(bson.M{"role_id": roleID.String()}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("castellan: count assignments: %w", err)
	}
	return count, nil
}

// ReassignRole moves assignments one document at a time; without a
// transaction a concurrent assign may briefly observe both roles.
func (s *Store) ReassignRole(ctx context.Context, from, to id.RoleID) (int64, error) {
	var holders []assignmentModel
	if err := s.mdb.NewFind(&holders).Filter(bson.M{"role_id": to.String()}).Scan(ctx); err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}
	holds := make(map[string]struct{}, len(holders))
	for _, h := range holders {
		holds[h.TenantID+"\x00"+h.UserID] = struct{}{}
	}

	var moving []assignmentModel
	if err := s.mdb.NewFind(&moving).Filter(bson.M{"role_id": from.String()}).Scan(ctx); err != nil {
		return 0, fmt.Errorf("castellan: reassign role: %w", err)
	}

	var n int64
	for i := range moving {
		m := &moving[i]
		user := m.TenantID + "\x00" + m.UserID
		if _, dup := holds[user]; dup {
			if _, err := s.mdb.NewDelete((*assignmentModel)(nil)).Filter(bson.M{"_id": m.ID}).Exec(ctx); err != nil {
				return n, fmt.Errorf("castellan: reassign role: %w", err)
			}
		} else {
			_, err := s.mdb.NewUpdate((*assignmentModel)(nil)).
				Filter(bson.M{"_id": m.ID}).
				Set("role_id", to.String()).
				Exec(ctx)
			if err != nil {
				return n, fmt.Errorf("castellan: reassign role: %w", err)
			}
			holds[user] = struct{}{}
		}
		n++
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("castellan: delete assignments by role: %w", err)
	}
	return nil
}
