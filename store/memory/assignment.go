package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/store"
)

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.TenantID == a.TenantID && existing.UserID == a.UserID && existing.RoleID == a.RoleID {
			return fmt.Errorf("assignment of %s to %q: %w", a.RoleID, a.UserID, store.ErrConflict)
		}
	}
	s.stamp(&a.CreatedAt, nil)
	c := *a
	s.assignments[a.ID.String()] = &c
	return nil
}

func (s *Store) GetAssignment(_ context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[assID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (s *Store) DeleteAssignment(_ context.Context, assID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[assID.String()]; !ok {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	delete(s.assignments, assID.String())
	return nil
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if filter != nil {
			if filter.TenantID != "" && a.TenantID != filter.TenantID {
				continue
			}
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
			if filter.RoleID != nil && a.RoleID != *filter.RoleID {
				continue
			}
		}
		c := *a
		result = append(result, &c)
	}
	sortByCreated(result,
		func(a *assignment.Assignment) time.Time { return a.CreatedAt },
		func(a *assignment.Assignment) string { return a.ID.String() })
	if filter == nil {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *Store) ListRolesForUser(_ context.Context, tenantID, userID string) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*assignment.Assignment
	for _, a := range s.assignments {
		if a.TenantID == tenantID && a.UserID == userID {
			matched = append(matched, a)
		}
	}
	sortByCreated(matched,
		func(a *assignment.Assignment) time.Time { return a.CreatedAt },
		func(a *assignment.Assignment) string { return a.ID.String() })
	ids := make([]id.RoleID, len(matched))
	for i, a := range matched {
		ids[i] = a.RoleID
	}
	return ids, nil
}

func (s *Store) CountAssignmentsForRole(_ context.Context, roleID id.RoleID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.assignments {
		if a.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ReassignRole(_ context.Context, from, to id.RoleID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holds := make(map[string]struct{})
	for _, a := range s.assignments {
		if a.RoleID == to {
			holds[a.TenantID+"\x00"+a.UserID] = struct{}{}
		}
	}

	var n int64
	for key, a := range s.assignments {
		if a.RoleID != from {
			continue
		}
		n++
		user := a.TenantID + "\x00" + a.UserID
		if _, dup := holds[user]; dup {
			delete(s.assignments, key)
			continue
		}
		a.RoleID = to
		holds[user] = struct{}{}
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.RoleID == roleID {
			delete(s.assignments, key)
		}
	}
	return nil
}
