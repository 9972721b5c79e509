// Package memory provides an in-memory implementation of the castellan
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// Compile-time interface checks.
var (
	_ store.Store      = (*Store)(nil)
	_ catalog.Store    = (*Store)(nil)
	_ role.Store       = (*Store)(nil)
	_ bundle.Store     = (*Store)(nil)
	_ assignment.Store = (*Store)(nil)
	_ tenant.Store     = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all castellan entities. Values
// are copied on the way in and out so callers never share state with it.
type Store struct {
	mu sync.RWMutex

	modules     map[string]*catalog.Module
	roles       map[string]*role.Role
	packages    map[string]*bundle.Package
	assignments map[string]*assignment.Assignment
	tenants     map[string]*tenant.Tenant

	now func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		modules:     make(map[string]*catalog.Module),
		roles:       make(map[string]*role.Role),
		packages:    make(map[string]*bundle.Package),
		assignments: make(map[string]*assignment.Assignment),
		tenants:     make(map[string]*tenant.Tenant),
		now:         time.Now,
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now().UTC()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// page applies limit/offset. A non-positive limit means no limit.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// sortByCreated orders items oldest first, breaking ties by ID.
func sortByCreated[T any](items []T, created func(T) time.Time, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return key(items[i]) < key(items[j])
	})
}
