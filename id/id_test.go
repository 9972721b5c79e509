package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/castellan/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"TenantID", id.NewTenantID, "tnt_"},
		{"ModuleID", id.NewModuleID, "mod_"},
		{"ActionID", id.NewActionID, "act_"},
		{"RoleID", id.NewRoleID, "role_"},
		{"PackageID", id.NewPackageID, "pkg_"},
		{"AssignmentID", id.NewAssignmentID, "asgn_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"TenantID", id.NewTenantID, id.ParseTenantID},
		{"ModuleID", id.NewModuleID, id.ParseModuleID},
		{"ActionID", id.NewActionID, id.ParseActionID},
		{"RoleID", id.NewRoleID, id.ParseRoleID},
		{"PackageID", id.NewPackageID, id.ParsePackageID},
		{"AssignmentID", id.NewAssignmentID, id.ParseAssignmentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed != original {
				t.Errorf("round-trip mismatch: %q != %q", parsed, original)
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseRoleID(id.NewPackageID().String()); err == nil {
		t.Fatal("expected role parser to reject a package id")
	}
	if _, err := id.ParseTenantID(id.NewRoleID().String()); err == nil {
		t.Fatal("expected tenant parser to reject a role id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Fatal("Nil should be nil")
	}
	if id.Nil.String() != "" {
		t.Fatalf("expected empty string, got %q", id.Nil.String())
	}
	v, err := id.Nil.Value()
	if err != nil || v != nil {
		t.Fatalf("expected NULL value, got %v, %v", v, err)
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		RoleID id.RoleID `json:"role_id"`
	}
	original := wrapper{RoleID: id.NewRoleID()}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	var decoded wrapper
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RoleID != original.RoleID {
		t.Fatalf("expected %s, got %s", original.RoleID, decoded.RoleID)
	}
}

func TestScan(t *testing.T) {
	rid := id.NewRoleID()
	var got id.ID
	if err := got.Scan(rid.String()); err != nil {
		t.Fatal(err)
	}
	if got != rid {
		t.Fatalf("expected %s, got %s", rid, got)
	}
	if err := got.Scan(nil); err != nil || !got.IsNil() {
		t.Fatalf("expected Nil after scanning NULL, got %s (%v)", got, err)
	}
	if err := got.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}
