// Package mongo provides a MongoDB implementation of the castellan composite
// store. Modules embed their actions and roles embed their grants, so every
// read is a single document fetch.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/castellan/store"
)

// Collection name constants.
const (
	colModules     = "castellan_modules"
	colRoles       = "castellan_roles"
	colPackages    = "castellan_packages"
	colAssignments = "castellan_assignments"
	colTenants     = "castellan_tenants"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite castellan store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all castellan collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("castellan/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// wrapWrite maps duplicate key errors to store.ErrConflict.
func wrapWrite(op string, err error) error {
	if mongod.IsDuplicateKeyError(err) {
		return fmt.Errorf("castellan: %s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("castellan: %s: %w", op, err)
}

// visibleTo matches platform-wide documents plus those owned by tenantID.
func visibleTo(tenantID string) bson.M {
	if tenantID == "" {
		return bson.M{"tenant_id": ""}
	}
	return bson.M{"tenant_id": bson.M{"$in": []string{"", tenantID}}}
}

func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colModules: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "sort_order", Value: 1}, {Key: "slug", Value: 1}}},
		},
		colRoles: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_system", Value: 1}}},
		},
		colPackages: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "type", Value: 1}}},
		},
		colAssignments: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colTenants: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "root_admin_id", Value: 1}}},
			{Keys: bson.D{{Key: "admin_type", Value: 1}, {Key: "is_active", Value: 1}}},
		},
	}
}
