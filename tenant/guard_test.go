package tenant

import (
	"errors"
	"testing"

	"github.com/xraph/castellan/id"
)

func strPtr(s string) *string { return &s }

func TestEnsureTenantAccess(t *testing.T) {
	tests := []struct {
		user, requested string
		want            bool
	}{
		{"t1", "t1", true},
		{"t1", "t2", false},
		{"", "", false},
		{"t1", "", false},
		{"*", "t1", false},
	}
	for _, tt := range tests {
		if got := EnsureTenantAccess(tt.user, tt.requested); got != tt.want {
			t.Errorf("EnsureTenantAccess(%q, %q) = %v, want %v", tt.user, tt.requested, got, tt.want)
		}
	}
}

func TestRequireTenantAccess(t *testing.T) {
	if err := RequireTenantAccess("t1", "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := RequireTenantAccess("t1", "t2")
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestIsValidAffiliateChild(t *testing.T) {
	if !IsValidAffiliateChild("aff1", "root1", strPtr("root1")) {
		t.Fatal("expected aff1 to be a valid child of root1")
	}
	if IsValidAffiliateChild("aff1", "root2", strPtr("root1")) {
		t.Fatal("aff1 is not a child of root2")
	}
	if IsValidAffiliateChild("aff1", "root1", nil) {
		t.Fatal("affiliate without parent is never valid")
	}
	if IsValidAffiliateChild("root1", "root1", strPtr("root1")) {
		t.Fatal("a tenant cannot be its own parent")
	}
}

func TestCanManageTenant(t *testing.T) {
	// Affiliate to sibling affiliate is denied even under the same root.
	if CanManageTenant(AdminAffiliate, "T1", "T2", AdminAffiliate) {
		t.Fatal("affiliate must not manage another affiliate")
	}
	if !CanManageTenant(AdminAffiliate, "T1", "T1", AdminAffiliate) {
		t.Fatal("affiliate manages its own tenant")
	}
	if CanManageTenant(AdminAffiliate, "T1", "R1", AdminRoot) {
		t.Fatal("affiliate must not manage its root")
	}
	if !CanManageTenant(AdminRoot, "ANY", "T2", AdminAffiliate) {
		t.Fatal("root manages any tenant")
	}
	if CanManageTenant(AdminType("superuser"), "T1", "T1", AdminAffiliate) {
		t.Fatal("unknown admin types are denied")
	}
}

type record struct {
	tenantID string
	name     string
}

func (r record) GetTenantID() string { return r.tenantID }

func TestScopeToTenant(t *testing.T) {
	items := []record{
		{"t1", "a"}, {"t2", "b"}, {"t1", "c"}, {"T1", "d"},
	}
	got := ScopeToTenant(items, "t1")
	if len(got) != 2 || got[0].name != "a" || got[1].name != "c" {
		t.Fatalf("unexpected scoped items: %+v", got)
	}
	if len(ScopeToTenant(items, "")) != 0 {
		t.Fatal("empty tenant scopes to nothing")
	}
}

func TestValidateHierarchy(t *testing.T) {
	root := &Tenant{ID: id.NewTenantID(), Slug: "root", AdminType: AdminRoot, IsActive: true}
	if err := ValidateHierarchy(root, nil); err != nil {
		t.Fatalf("root without parent should be valid: %v", err)
	}

	rootWithParent := &Tenant{ID: id.NewTenantID(), Slug: "bad", AdminType: AdminRoot, RootAdminID: &root.ID}
	if err := ValidateHierarchy(rootWithParent, root); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected ErrInvalidHierarchy, got %v", err)
	}

	aff := &Tenant{ID: id.NewTenantID(), Slug: "aff", AdminType: AdminAffiliate, RootAdminID: &root.ID}
	if err := ValidateHierarchy(aff, root); err != nil {
		t.Fatalf("affiliate under root should be valid: %v", err)
	}

	// No deeper nesting: an affiliate cannot parent another affiliate.
	nested := &Tenant{ID: id.NewTenantID(), Slug: "nested", AdminType: AdminAffiliate, RootAdminID: &aff.ID}
	if err := ValidateHierarchy(nested, aff); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected nesting to be rejected, got %v", err)
	}

	orphan := &Tenant{ID: id.NewTenantID(), Slug: "orphan", AdminType: AdminAffiliate}
	if err := ValidateHierarchy(orphan, nil); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected orphan affiliate to be rejected, got %v", err)
	}

	inactiveRoot := &Tenant{ID: id.NewTenantID(), Slug: "off", AdminType: AdminRoot}
	child := &Tenant{ID: id.NewTenantID(), Slug: "child", AdminType: AdminAffiliate, RootAdminID: &inactiveRoot.ID}
	if err := ValidateHierarchy(child, inactiveRoot); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("expected inactive parent to be rejected, got %v", err)
	}
}
