package castellan

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/bundle"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/store/memory"
	"github.com/xraph/castellan/tenant"
)

// countingStore counts role lookups and can be switched to fail.
type countingStore struct {
	store.Store
	roleFetches atomic.Int64
	fail        atomic.Bool
	gate        chan struct{}
}

var errStoreDown = errors.New("store unreachable")

func (c *countingStore) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	c.roleFetches.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.fail.Load() {
		return nil, errStoreDown
	}
	return c.Store.ListRolesForUser(ctx, tenantID, userID)
}

type fixture struct {
	eng    *Engine
	store  *countingStore
	mem    *memory.Store
	tenant string
	user   string
	editor *role.Role
}

func (f *fixture) ctx() PermissionContext {
	return PermissionContext{UserID: f.user, TenantID: f.tenant, UserRole: "editor", AdminType: tenant.AdminAffiliate}
}

func seedCatalog(t *testing.T, mem *memory.Store, tenantID string) {
	t.Helper()
	ctx := context.Background()
	mods := []catalog.Module{
		{Slug: "users", Order: 20, Icon: "users", Name: catalog.LocalizedText{"en": "Users"},
			Actions: []catalog.Action{{Slug: "view"}, {Slug: "edit"}}},
		{Slug: "cms", Order: 10, Icon: "file", Name: catalog.LocalizedText{"en": "Content"},
			Actions: []catalog.Action{{Slug: "view"}, {Slug: "create"}, {Slug: "delete"}}},
		{Slug: "billing", Order: 30, TenantID: tenantID,
			Actions: []catalog.Action{{Slug: "view"}}},
	}
	for i := range mods {
		mods[i].Normalize()
		if err := mem.CreateModule(ctx, &mods[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	cs := &countingStore{Store: mem}

	f := &fixture{mem: mem, store: cs, tenant: "t1", user: "u1"}
	seedCatalog(t, mem, f.tenant)

	f.editor = &role.Role{
		ID:          id.NewRoleID(),
		TenantID:    f.tenant,
		Slug:        "editor",
		Permissions: permset.Of("cms", "view", "create"),
	}
	if err := mem.CreateRole(ctx, f.editor); err != nil {
		t.Fatal(err)
	}
	f.assign(t, f.user, f.editor.ID)

	eng, err := NewEngine(append([]Option{WithStore(cs)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	f.eng = eng
	return f
}

func (f *fixture) assign(t *testing.T, userID string, roleID id.RoleID) {
	t.Helper()
	err := f.mem.CreateAssignment(context.Background(), &assignment.Assignment{
		ID:       id.NewAssignmentID(),
		TenantID: f.tenant,
		UserID:   userID,
		RoleID:   roleID,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestEditorScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pc := f.ctx()

	if f.eng.HasPermission(ctx, pc, Check{Module: "cms", Action: "delete"}) {
		t.Fatal("editor must not delete cms content")
	}
	if !f.eng.HasAllPermissions(ctx, pc, []Check{{"cms", "view"}, {"cms", "create"}}) {
		t.Fatal("editor should view and create cms content")
	}

	menu := f.eng.AccessibleModules(ctx, pc)
	if len(menu) != 1 {
		t.Fatalf("expected one menu entry, got %+v", menu)
	}
	got := menu[0]
	if got.Slug != "cms" || !got.HasAccess || got.Icon != "file" || got.Order != 10 {
		t.Fatalf("unexpected menu entry: %+v", got)
	}
	if !reflect.DeepEqual(got.Actions, []string{"view", "create"}) {
		t.Fatalf("Actions = %v, want catalog order [view create]", got.Actions)
	}
	if got.Name["en"] != "Content" {
		t.Fatalf("Name = %v", got.Name)
	}
}

func TestEmptyCheckLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if !f.eng.HasAllPermissions(ctx, f.ctx(), nil) {
		t.Error("HasAllPermissions(empty) must be true")
	}
	if f.eng.HasAnyPermission(ctx, f.ctx(), []Check{}) {
		t.Error("HasAnyPermission(empty) must be false")
	}
	if !f.eng.HasAnyPermission(ctx, f.ctx(), []Check{{"users", "view"}, {"cms", "view"}}) {
		t.Error("HasAnyPermission should pass when one check passes")
	}
	if f.eng.HasAllPermissions(ctx, f.ctx(), []Check{{"users", "view"}, {"cms", "view"}}) {
		t.Error("HasAllPermissions should fail when one check fails")
	}
}

func TestNoRolesDeniesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pc := PermissionContext{UserID: "nobody", TenantID: f.tenant, AdminType: tenant.AdminAffiliate}

	for _, c := range []Check{{"cms", "view"}, {"users", "view"}, {"billing", "view"}} {
		if f.eng.HasPermission(ctx, pc, c) {
			t.Errorf("user without roles granted %s", c.Key())
		}
	}
	if menu := f.eng.AccessibleModules(ctx, pc); menu == nil || len(menu) != 0 {
		t.Fatalf("expected empty non-nil menu, got %#v", menu)
	}
}

func TestMergesRolesAcrossAssignments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	viewer := &role.Role{ID: id.NewRoleID(), TenantID: f.tenant, Slug: "viewer",
		Permissions: permset.New(map[string][]string{"users": {"view"}, "billing": {"view"}})}
	if err := f.mem.CreateRole(ctx, viewer); err != nil {
		t.Fatal(err)
	}
	f.assign(t, f.user, viewer.ID)

	keys, err := f.eng.Effective(ctx, f.ctx())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"billing:view", "cms:create", "cms:view", "users:view"}
	if !reflect.DeepEqual(keys.Slice(), want) {
		t.Fatalf("Effective = %v, want %v", keys.Slice(), want)
	}

	menu := f.eng.AccessibleModules(ctx, f.ctx())
	var slugs []string
	for _, m := range menu {
		slugs = append(slugs, m.Slug)
	}
	if !reflect.DeepEqual(slugs, []string{"cms", "users", "billing"}) {
		t.Fatalf("menu order = %v", slugs)
	}
}

func TestRolesDoNotCrossTenants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other := PermissionContext{UserID: f.user, TenantID: "t2", AdminType: tenant.AdminAffiliate}
	if f.eng.HasPermission(ctx, other, Check{"cms", "view"}) {
		t.Fatal("assignment in t1 leaked into t2")
	}
}

func TestCacheAndInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pc := f.ctx()

	f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
	f.eng.HasPermission(ctx, pc, Check{"cms", "create"})
	f.eng.AccessibleModules(ctx, pc)
	if n := f.store.roleFetches.Load(); n != 1 {
		t.Fatalf("expected one store fetch, got %d", n)
	}

	// A role change is invisible until invalidated.
	f.editor.Permissions = permset.Of("cms", "view", "create", "delete")
	if err := f.mem.UpdateRole(ctx, f.editor); err != nil {
		t.Fatal(err)
	}
	if f.eng.HasPermission(ctx, pc, Check{"cms", "delete"}) {
		t.Fatal("expected the cached set to be served")
	}

	f.eng.InvalidateUserCache(ctx, f.user, f.tenant)
	if !f.eng.HasPermission(ctx, pc, Check{"cms", "delete"}) {
		t.Fatal("expected fresh resolution after invalidation")
	}
	if n := f.store.roleFetches.Load(); n != 2 {
		t.Fatalf("expected a fresh store fetch after invalidation, got %d", n)
	}

	f.eng.ClearCache(ctx)
	f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
	if n := f.store.roleFetches.Load(); n != 3 {
		t.Fatalf("expected a fresh store fetch after clear, got %d", n)
	}
}

func TestEmptySetIsCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pc := PermissionContext{UserID: "nobody", TenantID: f.tenant}

	f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
	f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
	if n := f.store.roleFetches.Load(); n != 1 {
		t.Fatalf("expected the empty set to be cached, got %d fetches", n)
	}
}

func TestStoreFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	rec := &recordingPlugin{}
	f := newFixture(t, WithPlugin(rec))
	f.store.fail.Store(true)
	pc := f.ctx()

	if f.eng.HasPermission(ctx, pc, Check{"cms", "view"}) {
		t.Fatal("store failure must deny")
	}
	if len(f.eng.AccessibleModules(ctx, pc)) != 0 {
		t.Fatal("store failure must yield an empty menu")
	}
	if _, err := f.eng.Effective(ctx, pc); !errors.Is(err, errStoreDown) {
		t.Fatalf("Effective err = %v, want store error", err)
	}
	if rec.failures.Load() == 0 {
		t.Fatal("expected ResolveFailed hook")
	}

	// Failures are not cached: recovery is visible without invalidation.
	f.store.fail.Store(false)
	if !f.eng.HasPermission(ctx, pc, Check{"cms", "view"}) {
		t.Fatal("expected access once the store recovers")
	}
}

func TestOrphanedAssignmentContributesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ghost := id.NewRoleID()
	f.assign(t, f.user, ghost)

	if !f.eng.HasPermission(ctx, f.ctx(), Check{"cms", "view"}) {
		t.Fatal("surviving role should still grant access")
	}

	orphan := PermissionContext{UserID: "orphan", TenantID: f.tenant}
	f.assign(t, "orphan", ghost)
	if f.eng.HasPermission(ctx, orphan, Check{"cms", "view"}) {
		t.Fatal("user whose only role is gone must be denied")
	}
}

func TestInvalidContextDenies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if f.eng.HasPermission(ctx, PermissionContext{TenantID: f.tenant}, Check{"cms", "view"}) {
		t.Fatal("missing user must deny")
	}
	if _, err := f.eng.Effective(ctx, PermissionContext{UserID: f.user}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if f.store.roleFetches.Load() != 0 {
		t.Fatal("invalid context reached the store")
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.gate = make(chan struct{})
	pc := f.ctx()

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.store.gate)
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Fatalf("caller %d denied", i)
		}
	}
	if n := f.store.roleFetches.Load(); n > 2 {
		t.Fatalf("expected collapsed fetches, got %d", n)
	}
}

func TestCancelledLeaderDoesNotDenyJoinedCallers(t *testing.T) {
	f := newFixture(t)
	f.store.gate = make(chan struct{})
	pc := f.ctx()

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		f.eng.HasPermission(leaderCtx, pc, Check{"cms", "view"})
	}()
	time.Sleep(20 * time.Millisecond)

	joined := make(chan bool, 1)
	go func() {
		joined <- f.eng.HasPermission(context.Background(), pc, Check{"cms", "view"})
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(f.store.gate)
	<-leaderDone

	if !<-joined {
		t.Fatal("joined caller denied after the leading caller was cancelled")
	}
	if _, ok := f.eng.cache.Get(context.Background(), CacheKey(f.user, f.tenant)); !ok {
		t.Fatal("completed resolution was not cached")
	}
}

func TestInvalidationDuringResolutionIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.gate = make(chan struct{})
	pc := f.ctx()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.eng.HasPermission(ctx, pc, Check{"cms", "view"})
	}()
	time.Sleep(20 * time.Millisecond)
	f.eng.InvalidateUserCache(ctx, f.user, f.tenant)
	close(f.store.gate)
	<-done

	if _, ok := f.eng.cache.Get(ctx, CacheKey(f.user, f.tenant)); ok {
		t.Fatal("resolution that raced an invalidation populated the cache")
	}
}

func TestDeactivatedTenantResolvesEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tnt := &tenant.Tenant{ID: id.NewTenantID(), Slug: "acme", AdminType: tenant.AdminRoot, IsActive: false}
	if err := f.mem.CreateTenant(ctx, tnt); err != nil {
		t.Fatal(err)
	}
	r := &role.Role{ID: id.NewRoleID(), TenantID: tnt.ID.String(), Slug: "admin", Permissions: permset.Of("cms", "view")}
	if err := f.mem.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := f.mem.CreateAssignment(ctx, &assignment.Assignment{
		ID: id.NewAssignmentID(), TenantID: tnt.ID.String(), UserID: "u9", RoleID: r.ID,
	}); err != nil {
		t.Fatal(err)
	}

	pc := PermissionContext{UserID: "u9", TenantID: tnt.ID.String(), AdminType: tenant.AdminRoot}
	if f.eng.HasPermission(ctx, pc, Check{"cms", "view"}) {
		t.Fatal("deactivated tenant must resolve to the empty set")
	}
}

func TestPlanCeiling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithConfig(Config{EnforcePlanCeiling: true}))

	plan := &bundle.Package{ID: id.NewPackageID(), Name: "starter", Type: tenant.AdminAffiliate,
		Permissions: permset.Of("users", "view"), IsActive: true}
	if err := f.mem.CreatePackage(ctx, plan); err != nil {
		t.Fatal(err)
	}
	root := &tenant.Tenant{ID: id.NewTenantID(), Slug: "root", AdminType: tenant.AdminRoot, IsActive: true}
	aff := &tenant.Tenant{ID: id.NewTenantID(), Slug: "aff", AdminType: tenant.AdminAffiliate,
		RootAdminID: &root.ID, PlanPackageID: &plan.ID, IsActive: true}
	for _, tn := range []*tenant.Tenant{root, aff} {
		if err := f.mem.CreateTenant(ctx, tn); err != nil {
			t.Fatal(err)
		}
	}

	grantAll := permset.New(map[string][]string{"cms": {"view"}, "users": {"view", "edit"}})
	for _, tn := range []*tenant.Tenant{root, aff} {
		r := &role.Role{ID: id.NewRoleID(), TenantID: tn.ID.String(), Slug: "all", Permissions: grantAll}
		if err := f.mem.CreateRole(ctx, r); err != nil {
			t.Fatal(err)
		}
		if err := f.mem.CreateAssignment(ctx, &assignment.Assignment{
			ID: id.NewAssignmentID(), TenantID: tn.ID.String(), UserID: "admin", RoleID: r.ID,
		}); err != nil {
			t.Fatal(err)
		}
	}

	affCtx := PermissionContext{UserID: "admin", TenantID: aff.ID.String(), AdminType: tenant.AdminAffiliate}
	if f.eng.HasPermission(ctx, affCtx, Check{"cms", "view"}) {
		t.Error("affiliate exceeded its plan")
	}
	if !f.eng.HasPermission(ctx, affCtx, Check{"users", "edit"}) {
		t.Error("plan module should keep every granted action")
	}

	rootCtx := PermissionContext{UserID: "admin", TenantID: root.ID.String(), AdminType: tenant.AdminRoot}
	if !f.eng.HasPermission(ctx, rootCtx, Check{"cms", "view"}) {
		t.Error("root tenant must not be capped")
	}
}

type recordingPlugin struct {
	checks      atomic.Int64
	failures    atomic.Int64
	invalidated atomic.Int64
}

func (r *recordingPlugin) Name() string { return "recording" }

func (r *recordingPlugin) OnAfterCheck(context.Context, plugin.CheckEvent) error {
	r.checks.Add(1)
	return nil
}

func (r *recordingPlugin) OnResolveFailed(context.Context, string, string, error) error {
	r.failures.Add(1)
	return nil
}

func (r *recordingPlugin) OnCacheInvalidated(context.Context, string) error {
	r.invalidated.Add(1)
	return nil
}

func TestPluginHooks(t *testing.T) {
	ctx := context.Background()
	rec := &recordingPlugin{}
	f := newFixture(t, WithPlugin(rec))

	f.eng.HasPermission(ctx, f.ctx(), Check{"cms", "view"})
	f.eng.HasAnyPermission(ctx, f.ctx(), []Check{{"cms", "view"}})
	f.eng.InvalidateUserCache(ctx, f.user, f.tenant)
	f.eng.ClearCache(ctx)

	if rec.checks.Load() != 2 || rec.invalidated.Load() != 2 || rec.failures.Load() != 0 {
		t.Fatalf("checks=%d invalidated=%d failures=%d",
			rec.checks.Load(), rec.invalidated.Load(), rec.failures.Load())
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthenticated, ReasonUnauthenticated},
		{ErrInsufficientRole, ReasonInsufficientRole},
		{ErrInvalidAdminType, ReasonInvalidAdminType},
		{ErrInsufficientPermission, ReasonInsufficientPermission},
		{tenant.RequireTenantAccess("t1", "t2"), ReasonTenantMismatch},
		{permset.ValidateAgainstCatalog(permset.Of("ghost", "view"), nil, nil).Err(), ReasonInvalidCatalogReference},
		{errors.Join(ErrRoleNotFound, store.ErrNotFound), ReasonNotFound},
		{errStoreDown, ReasonInternal},
	}
	for _, c := range cases {
		if got := Reason(c.err); got != c.want {
			t.Errorf("Reason(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	pc := &PermissionContext{UserID: "u1", TenantID: "t1"}
	ctx := WithPermissionContext(context.Background(), pc)

	got, ok := FromContext(ctx)
	if !ok || got.UserID != "u1" {
		t.Fatalf("FromContext = %+v, %v", got, ok)
	}
	if TenantFromContext(ctx) != "t1" {
		t.Fatal("TenantFromContext did not use the permission context")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context returned an identity")
	}
}

func TestParseCheck(t *testing.T) {
	c, err := ParseCheck("CMS:View")
	if err != nil || c != (Check{Module: "cms", Action: "view"}) {
		t.Fatalf("ParseCheck = %+v, %v", c, err)
	}
	if _, err := ParseCheck("cms"); err == nil {
		t.Fatal("expected error for malformed key")
	}
}
