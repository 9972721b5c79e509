// Package store defines the aggregate persistence interface. Each subsystem
// (catalog, role, bundle, assignment, tenant) defines its own store
// interface. The composite Store composes them all.
// Backends: Memory, Postgres, SQLite, and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/tenant"
)

// Errors returned by every backend, wrapped with the entity that failed.
var (
	ErrNotFound = errors.New("castellan: not found")
	ErrConflict = errors.New("castellan: already exists")
)

// Store is the aggregate persistence interface.
// A single backend (memory, postgres, sqlite, mongo) implements all of them.
type Store interface {
	catalog.Store
	role.Store
	bundle.Store
	assignment.Store
	tenant.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
