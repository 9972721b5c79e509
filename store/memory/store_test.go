package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{
		ID:          id.NewRoleID(),
		TenantID:    "t1",
		Slug:        "editor",
		Name:        catalog.LocalizedText{"en": "Editor"},
		Permissions: permset.Of("cms", "view", "create"),
	}
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}

	dup := &role.Role{ID: id.NewRoleID(), TenantID: "t1", Slug: "editor"}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetRoleBySlug(ctx, "t1", "editor")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("slug lookup mismatch")
	}

	// Mutating the returned copy must not leak into the store.
	got.Permissions.Add("cms", "delete")
	keys, err := s.ListRolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"cms:create", "cms:view"}) {
		t.Fatalf("ListRolePermissions = %v", keys)
	}

	r.Permissions = permset.Of("cms", "view")
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	keys, _ = s.ListRolePermissions(ctx, r.ID)
	if !reflect.DeepEqual(keys, []string{"cms:view"}) {
		t.Fatalf("after update ListRolePermissions = %v", keys)
	}

	roles, err := s.ListRoles(ctx, &role.ListFilter{TenantID: "t1", Search: "edit"})
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected 1 role, got %d", len(roles))
	}

	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.ListRolePermissions(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted role, got %v", err)
	}
}

func TestModuleVisibility(t *testing.T) {
	ctx := context.Background()
	s := New()

	platform := &catalog.Module{Slug: "cms", Order: 2, Actions: []catalog.Action{{Slug: "view"}}}
	platform.Normalize()
	users := &catalog.Module{Slug: "users", Order: 1, Actions: []catalog.Action{{Slug: "view"}}}
	users.Normalize()
	private := &catalog.Module{TenantID: "t1", Slug: "reports", Order: 3}
	private.Normalize()

	for _, m := range []*catalog.Module{platform, users, private} {
		if err := s.CreateModule(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	mods, err := s.ListModules(ctx, &catalog.ListFilter{TenantID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 3 || mods[0].Slug != "users" || mods[2].Slug != "reports" {
		t.Fatalf("unexpected tenant modules: %v", slugs(mods))
	}

	mods, _ = s.ListModules(ctx, &catalog.ListFilter{TenantID: "t2"})
	if len(mods) != 2 {
		t.Fatalf("t2 must not see t1's module, got %v", slugs(mods))
	}

	got, err := s.GetModuleBySlug(ctx, "", "cms")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Actions) != 1 || got.Actions[0].ModuleID != got.ID {
		t.Fatal("actions not persisted with module")
	}
}

func slugs(mods []*catalog.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Slug
	}
	return out
}

func TestAssignments(t *testing.T) {
	ctx := context.Background()
	s := New()

	editor, viewer := id.NewRoleID(), id.NewRoleID()
	a1 := &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", UserID: "u1", RoleID: editor}
	a2 := &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", UserID: "u2", RoleID: editor}
	a3 := &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", UserID: "u2", RoleID: viewer}
	for _, a := range []*assignment.Assignment{a1, a2, a3} {
		if err := s.CreateAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	again := &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", UserID: "u1", RoleID: editor}
	if err := s.CreateAssignment(ctx, again); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	roles, err := s.ListRolesForUser(ctx, "t1", "u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if roles, _ := s.ListRolesForUser(ctx, "t2", "u2"); len(roles) != 0 {
		t.Fatal("roles leaked across tenants")
	}

	n, err := s.CountAssignmentsForRole(ctx, editor)
	if err != nil || n != 2 {
		t.Fatalf("CountAssignmentsForRole = %d, %v", n, err)
	}

	// u2 already holds viewer, so its editor assignment collapses.
	moved, err := s.ReassignRole(ctx, editor, viewer)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 moved, got %d", moved)
	}
	if n, _ := s.CountAssignmentsForRole(ctx, editor); n != 0 {
		t.Fatalf("editor still held by %d users", n)
	}
	if n, _ := s.CountAssignmentsForRole(ctx, viewer); n != 2 {
		t.Fatalf("expected viewer held by 2 users, got %d", n)
	}

	if err := s.DeleteAssignmentsByRole(ctx, viewer); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListAssignments(ctx, &assignment.ListFilter{TenantID: "t1"})
	if len(list) != 0 {
		t.Fatalf("expected no assignments, got %d", len(list))
	}
}

func TestPackages(t *testing.T) {
	ctx := context.Background()
	s := New()

	platform := &bundle.Package{ID: id.NewPackageID(), Name: "basic", Type: tenant.AdminAffiliate, IsActive: true, Permissions: permset.Of("cms", "view")}
	owned := &bundle.Package{ID: id.NewPackageID(), TenantID: "t1", Name: "custom", Type: tenant.AdminRoot}
	for _, p := range []*bundle.Package{platform, owned} {
		if err := s.CreatePackage(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	active := true
	list, err := s.ListPackages(ctx, &bundle.ListFilter{TenantID: "t2", IsActive: &active})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != platform.ID {
		t.Fatalf("expected only the platform package, got %d", len(list))
	}

	all, _ := s.ListPackages(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(all))
	}

	if err := s.DeletePackage(ctx, owned.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPackage(ctx, owned.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTenants(t *testing.T) {
	ctx := context.Background()
	s := New()

	root := &tenant.Tenant{ID: id.NewTenantID(), Name: "Acme", Slug: "acme", AdminType: tenant.AdminRoot, IsActive: true}
	aff := &tenant.Tenant{ID: id.NewTenantID(), Name: "Acme East", Slug: "acme-east", AdminType: tenant.AdminAffiliate, RootAdminID: &root.ID, IsActive: true}
	for _, tn := range []*tenant.Tenant{root, aff} {
		if err := s.CreateTenant(ctx, tn); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateTenant(ctx, &tenant.Tenant{ID: id.NewTenantID(), Slug: "acme"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	children, err := s.ListTenants(ctx, &tenant.ListFilter{RootAdminID: &root.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].Slug != "acme-east" {
		t.Fatalf("unexpected children: %d", len(children))
	}

	aff.IsActive = false
	if err := s.UpdateTenant(ctx, aff); err != nil {
		t.Fatal(err)
	}
	inactive := false
	list, _ := s.ListTenants(ctx, &tenant.ListFilter{IsActive: &inactive})
	if len(list) != 1 || list[0].ID != aff.ID {
		t.Fatal("expected the deactivated affiliate")
	}

	got, err := s.GetTenantBySlug(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != root.ID {
		t.Fatal("slug lookup mismatch")
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, slug := range []string{"a", "b", "c"} {
		if err := s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), TenantID: "t1", Slug: slug}); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := s.ListRoles(ctx, &role.ListFilter{TenantID: "t1", Limit: 2, Offset: 1})
	if len(list) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(list))
	}
	list, _ = s.ListRoles(ctx, &role.ListFilter{TenantID: "t1", Offset: 5})
	if len(list) != 0 {
		t.Fatalf("expected 0 roles past the end, got %d", len(list))
	}
}
