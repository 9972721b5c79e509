package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
)

// testPlugin implements Plugin + RoleCreated + AfterCheck + RolePermissionsChanged.
type testPlugin struct {
	roleCreatedCalled bool
	checks            []CheckEvent
	diff              permset.DiffResult
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, ev CheckEvent) error {
	t.checks = append(t.checks, ev)
	return nil
}

func (t *testPlugin) OnRolePermissionsChanged(_ context.Context, _ *role.Role, d permset.DiffResult) error {
	t.diff = d
	return nil
}

// failingPlugin returns an error from every hook it implements.
type failingPlugin struct{ calls int }

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnAfterCheck(context.Context, CheckEvent) error {
	f.calls++
	return errors.New("boom")
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Slug: "admin"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	reg.EmitAfterCheck(ctx, CheckEvent{UserID: "u1", TenantID: "t1", Permission: "cms:view", Allowed: true})
	if len(tp.checks) != 1 || tp.checks[0].Permission != "cms:view" {
		t.Fatalf("unexpected check events: %+v", tp.checks)
	}

	d := permset.Diff(permset.Of("cms", "view"), permset.Of("cms", "view", "edit"))
	reg.EmitRolePermissionsChanged(ctx, &role.Role{}, d)
	if !tp.diff.Added.Has("cms", "edit") {
		t.Fatalf("diff not delivered: %+v", tp.diff)
	}

	// Hooks with no listeners are no-ops.
	reg.EmitResolveFailed(ctx, "u1", "t1", errors.New("down"))
	reg.EmitRoleDeleted(ctx, id.NewRoleID())
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorsDoNotStopDispatch(t *testing.T) {
	reg := NewRegistry(nil)
	fp := &failingPlugin{}
	tp := &testPlugin{}
	reg.Register(fp)
	reg.Register(tp)

	reg.EmitAfterCheck(context.Background(), CheckEvent{Permission: "cms:view"})
	if fp.calls != 1 || len(tp.checks) != 1 {
		t.Fatalf("dispatch stopped after hook error: failing=%d test=%d", fp.calls, len(tp.checks))
	}
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	reg.EmitAfterCheck(context.Background(), CheckEvent{})
	reg.EmitCacheInvalidated(context.Background(), "")
	if reg.Plugins() != nil {
		t.Fatal("nil registry returned plugins")
	}
}
