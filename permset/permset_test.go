package permset

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/tenant"
)

func TestMergeUnion(t *testing.T) {
	a := New(map[string][]string{"cms": {"view", "create"}})
	b := New(map[string][]string{"cms": {"edit"}, "users": {"view"}})

	got := Merge(a, b)
	want := New(map[string][]string{"cms": {"create", "edit", "view"}, "users": {"view"}})
	if !got.Equal(want) {
		t.Fatalf("Merge = %v, want %v", got.Map(), want.Map())
	}
}

func TestMergeProperties(t *testing.T) {
	a := New(map[string][]string{"cms": {"view"}, "billing": {"view"}})
	b := New(map[string][]string{"cms": {"edit"}})
	c := New(map[string][]string{"users": {"create"}, "cms": {"view"}})

	if !Merge(a, b).Equal(Merge(b, a)) {
		t.Error("merge is not commutative")
	}
	if !Merge(Merge(a, b), c).Equal(Merge(a, Merge(b, c))) {
		t.Error("merge is not associative")
	}
	if !Merge(a, a).Equal(a) {
		t.Error("merge is not idempotent")
	}
	if !Merge(a).Equal(a) || Merge().Len() != 0 {
		t.Error("merge identity broken")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := Of("cms", "view")
	_ = Merge(a, Of("cms", "edit"))
	if a.Has("cms", "edit") {
		t.Fatal("Merge mutated its input")
	}
}

func TestMergeGrants(t *testing.T) {
	got := MergeGrants(
		RoleGrant(id.NewRoleID(), Of("cms", "view")),
		PackageGrant(id.NewPackageID(), Of("users", "view")),
	)
	if !got.Has("cms", "view") || !got.Has("users", "view") || got.Len() != 2 {
		t.Fatalf("MergeGrants = %v", got.Map())
	}
}

func TestIntersect(t *testing.T) {
	a := New(map[string][]string{"cms": {"view", "delete"}, "users": {"view"}})
	b := New(map[string][]string{"cms": {"delete"}, "billing": {"view"}})

	got := Intersect(a, b)
	if !got.Equal(Of("cms", "delete")) {
		t.Fatalf("Intersect = %v, want cms:delete", got.Map())
	}
	if Intersect(a, nil).Len() != 0 {
		t.Fatal("Intersect with nil is not empty")
	}
}

func TestDiff(t *testing.T) {
	before := New(map[string][]string{
		"cms":     {"view", "edit"},
		"billing": {"view"},
		"users":   {"view"},
	})
	after := New(map[string][]string{
		"cms":     {"edit", "view"},
		"users":   {"view", "create"},
		"reports": {"export"},
	})

	d := Diff(before, after)

	if !reflect.DeepEqual(d.Unchanged, []string{"cms"}) {
		t.Errorf("Unchanged = %v, want [cms]", d.Unchanged)
	}
	wantAdded := New(map[string][]string{"reports": {"export"}, "users": {"create"}})
	if !d.Added.Equal(wantAdded) {
		t.Errorf("Added = %v, want %v", d.Added.Map(), wantAdded.Map())
	}
	wantRemoved := Of("billing", "view")
	if !d.Removed.Equal(wantRemoved) {
		t.Errorf("Removed = %v, want %v", d.Removed.Map(), wantRemoved.Map())
	}
}

func TestDiffModuleRevokedAction(t *testing.T) {
	d := Diff(Of("cms", "view", "delete"), Of("cms", "view"))
	if !d.Removed.Equal(Of("cms", "delete")) || d.Added.Len() != 0 {
		t.Fatalf("unexpected diff: added=%v removed=%v", d.Added.Map(), d.Removed.Map())
	}
	if len(d.Unchanged) != 0 {
		t.Fatalf("changed module reported unchanged: %v", d.Unchanged)
	}
}

func TestDiffIdentical(t *testing.T) {
	s := New(map[string][]string{"cms": {"view"}, "users": {"view"}})
	d := Diff(s, s.Clone())
	if !d.IsEmpty() {
		t.Fatalf("expected empty diff, got %+v", d)
	}
	if len(d.Unchanged) != 2 {
		t.Fatalf("Unchanged = %v", d.Unchanged)
	}
}

func TestFilterByScope(t *testing.T) {
	s := New(map[string][]string{"cms": {"view"}, "billing": {"view", "refund"}})
	plan := Of("cms", "view")

	if got := FilterByScope(s, tenant.AdminRoot, nil); !got.Equal(s) {
		t.Errorf("root filter = %v, want input unchanged", got.Map())
	}

	got := FilterByScope(s, tenant.AdminAffiliate, plan)
	if !got.Equal(Of("cms", "view")) {
		t.Errorf("affiliate filter = %v, want only cms", got.Map())
	}

	if got := FilterByScope(s, tenant.AdminAffiliate, nil); got.Len() != 0 {
		t.Errorf("affiliate without plan = %v, want empty", got.Map())
	}
}

func TestFilterByScopeKeepsWholeModule(t *testing.T) {
	s := Of("cms", "view", "delete")
	got := FilterByScope(s, tenant.AdminAffiliate, Of("cms", "view"))
	if !got.Equal(s) {
		t.Fatalf("filter trimmed actions inside an allowed module: %v", got.Map())
	}
}

func testCatalog() []catalog.Module {
	cms := catalog.Module{Slug: "cms", Actions: []catalog.Action{{Slug: "view"}, {Slug: "edit"}}}
	cms.Normalize()
	users := catalog.Module{Slug: "users", Actions: []catalog.Action{{Slug: "view"}}}
	users.Normalize()
	return []catalog.Module{cms, users}
}

func TestValidateAgainstCatalog(t *testing.T) {
	modules := testCatalog()
	actions := catalog.New(modules).Actions()

	v := ValidateAgainstCatalog(Of("cms", "view", "edit"), modules, actions)
	if !v.Valid || v.Err() != nil {
		t.Fatalf("expected valid, got %+v", v)
	}

	// Action slug exists elsewhere, but not in this module.
	v = ValidateAgainstCatalog(Of("users", "edit"), modules, actions)
	if v.Valid {
		t.Fatal("expected users:edit to be rejected")
	}
}

func TestValidateUnknownAction(t *testing.T) {
	modules := testCatalog()
	actions := catalog.New(modules).Actions()

	v := ValidateAgainstCatalog(Of("cms", "view", "actx"), modules, actions)
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if len(v.Errors) != 1 || v.Errors[0].Action != "actx" || v.Errors[0].Module != "cms" {
		t.Fatalf("unexpected errors: %+v", v.Errors)
	}
	if !errors.Is(v.Err(), ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", v.Err())
	}
}

func TestValidateUnknownModule(t *testing.T) {
	modules := testCatalog()
	actions := catalog.New(modules).Actions()

	v := ValidateAgainstCatalog(Of("ghost", "view"), modules, actions)
	if v.Valid || len(v.Errors) == 0 || v.Errors[0].Module != "ghost" || v.Errors[0].Action != "" {
		t.Fatalf("unexpected validation: %+v", v)
	}
}

func TestUniverse(t *testing.T) {
	u := Universe(testCatalog())
	want := []string{"cms:edit", "cms:view", "users:view"}
	if !reflect.DeepEqual(u.Keys(), want) {
		t.Fatalf("Universe keys = %v, want %v", u.Keys(), want)
	}
}

func TestKeys(t *testing.T) {
	if got := Key(" CMS ", "View"); got != "cms:view" {
		t.Fatalf("Key = %q", got)
	}

	m, a, err := ParseKey("cms:view")
	if err != nil || m != "cms" || a != "view" {
		t.Fatalf("ParseKey = %q %q %v", m, a, err)
	}
	for _, bad := range []string{"", "cms", ":view", "cms:", "a:b:c"} {
		if _, _, err := ParseKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ParseKey(%q) err = %v, want ErrInvalidKey", bad, err)
		}
	}

	s, err := FromKeys([]string{"cms:view", "broken", "users:view"})
	if err == nil {
		t.Fatal("expected error for malformed key")
	}
	if !reflect.DeepEqual(s.Keys(), []string{"cms:view", "users:view"}) {
		t.Fatalf("FromKeys = %v", s.Keys())
	}
}

func TestFlatten(t *testing.T) {
	s := New(map[string][]string{"cms": {"view", "edit"}})
	ks := Flatten(s)
	if !ks.Has("cms:view") || !ks.Has("cms:edit") || ks.Has("cms:delete") {
		t.Fatalf("unexpected key set: %v", ks.Slice())
	}
	if !ks.Set().Equal(s) {
		t.Fatal("KeySet round trip lost grants")
	}
}

func TestCanPerform(t *testing.T) {
	s := Of("cms", "view")
	if !CanPerform(s, "cms", "view") || CanPerform(s, "cms", "edit") || CanPerform(nil, "cms", "view") {
		t.Fatal("CanPerform mismatch")
	}
}

func TestSetJSON(t *testing.T) {
	s := New(map[string][]string{"cms": {"view", "edit"}, "empty": {}})
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"cms":["edit","view"]}` {
		t.Fatalf("json = %s", data)
	}

	var back Set
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(s) {
		t.Fatalf("decoded %v, want %v", back.Map(), s.Map())
	}
}
