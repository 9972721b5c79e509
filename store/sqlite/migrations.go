package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the castellan store (SQLite).
var Migrations = migrate.NewGroup("castellan")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_modules",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS castellan_modules (
    id          TEXT PRIMARY KEY,
    tenant_id   TEXT NOT NULL DEFAULT '',
    slug        TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '{}',
    sort_order  INTEGER NOT NULL DEFAULT 0,
    icon        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, slug)
);

CREATE TABLE IF NOT EXISTS castellan_actions (
    id         TEXT PRIMARY KEY,
    module_id  TEXT NOT NULL REFERENCES castellan_modules(id) ON DELETE CASCADE,
    slug       TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '{}',
    position   INTEGER NOT NULL DEFAULT 0,

    UNIQUE(module_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_castellan_actions_module ON castellan_actions (module_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS castellan_actions;
DROP TABLE IF EXISTS castellan_modules;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS castellan_roles (
    id           TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    slug         TEXT NOT NULL,
    name         TEXT NOT NULL DEFAULT '{}',
    description  TEXT NOT NULL DEFAULT '',
    is_system    INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, slug)
);

CREATE TABLE IF NOT EXISTS castellan_role_permissions (
    role_id      TEXT NOT NULL REFERENCES castellan_roles(id) ON DELETE CASCADE,
    module_slug  TEXT NOT NULL,
    action_slug  TEXT NOT NULL,

    PRIMARY KEY (role_id, module_slug, action_slug)
);

CREATE INDEX IF NOT EXISTS idx_castellan_roles_tenant ON castellan_roles (tenant_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS castellan_role_permissions;
DROP TABLE IF EXISTS castellan_roles;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_packages",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS castellan_packages (
    id           TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    type         TEXT NOT NULL,
    permissions  TEXT NOT NULL DEFAULT '{}',
    is_active    INTEGER NOT NULL DEFAULT 1,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_castellan_packages_tenant ON castellan_packages (tenant_id, type);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS castellan_packages`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_assignments",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS castellan_assignments (
    id          TEXT PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    role_id     TEXT NOT NULL,
    granted_by  TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, user_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_castellan_assignments_user ON castellan_assignments (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_castellan_assignments_role ON castellan_assignments (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS castellan_assignments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tenants",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS castellan_tenants (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    slug             TEXT NOT NULL UNIQUE,
    admin_type       TEXT NOT NULL CHECK (admin_type IN ('root', 'affiliate')),
    root_admin_id    TEXT REFERENCES castellan_tenants(id),
    plan_package_id  TEXT,
    is_verified      INTEGER NOT NULL DEFAULT 0,
    is_active        INTEGER NOT NULL DEFAULT 1,
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_castellan_tenants_root ON castellan_tenants (root_admin_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS castellan_tenants`)
				return err
			},
		},
	)
}
