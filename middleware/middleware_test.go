package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/id"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/role"
	"github.com/xraph/castellan/store/memory"
	"github.com/xraph/castellan/tenant"
)

const (
	editorToken    = "editor-token"
	rootToken      = "root-token"
	anonymousToken = ""
)

func newAuthorizer(t *testing.T) *Authorizer {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	editor := &role.Role{ID: id.NewRoleID(), TenantID: "t1", Slug: "editor", Permissions: permset.Of("cms", "view", "create")}
	require.NoError(t, s.CreateRole(ctx, editor))
	require.NoError(t, s.CreateAssignment(ctx, &assignment.Assignment{
		ID: id.NewAssignmentID(), TenantID: "t1", UserID: "u1", RoleID: editor.ID,
	}))

	eng, err := castellan.NewEngine(castellan.WithStore(s))
	require.NoError(t, err)

	provider := identity.Static{
		editorToken: {UserID: "u1", TenantID: "t1", UserRole: "editor", AdminType: tenant.AdminAffiliate},
		rootToken:   {UserID: "u0", TenantID: "t0", UserRole: "owner", AdminType: tenant.AdminRoot},
	}
	return NewAuthorizer(eng, provider)
}

func TestAuthorizeReasons(t *testing.T) {
	a := newAuthorizer(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
		cfg   RouteConfig
		want  error
	}{
		{"no token", anonymousToken, RouteConfig{}, castellan.ErrUnauthenticated},
		{"unknown token", "forged", RouteConfig{}, castellan.ErrUnauthenticated},
		{"role", editorToken, RouteConfig{AllowedRoles: []string{"owner"}}, castellan.ErrInsufficientRole},
		{"admin type", editorToken, RouteConfig{AllowedAdminTypes: []tenant.AdminType{tenant.AdminRoot}}, castellan.ErrInvalidAdminType},
		{"all permissions", editorToken, Permissions(true, "cms:view", "cms:delete"), castellan.ErrInsufficientPermission},
		{"any permission", editorToken, Permissions(false, "users:view", "cms:delete"), castellan.ErrInsufficientPermission},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pc, err := a.Authorize(ctx, c.token, c.cfg)
			assert.Nil(t, pc)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestAuthorizeOrder(t *testing.T) {
	a := newAuthorizer(t)

	// Role is checked before admin type and permissions.
	_, err := a.Authorize(context.Background(), editorToken, RouteConfig{
		AllowedRoles:        []string{"owner"},
		AllowedAdminTypes:   []tenant.AdminType{tenant.AdminRoot},
		RequiredPermissions: []castellan.Check{{Module: "cms", Action: "delete"}},
	})
	assert.ErrorIs(t, err, castellan.ErrInsufficientRole)
}

func TestAuthorizeAllows(t *testing.T) {
	a := newAuthorizer(t)
	ctx := context.Background()

	pc, err := a.Authorize(ctx, editorToken, RouteConfig{
		AllowedRoles:      []string{"editor", "owner"},
		AllowedAdminTypes: []tenant.AdminType{tenant.AdminAffiliate},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", pc.UserID)

	_, err = a.Authorize(ctx, editorToken, Permissions(true, "cms:view", "cms:create"))
	assert.NoError(t, err)

	_, err = a.Authorize(ctx, editorToken, Permissions(false, "users:view", "cms:view"))
	assert.NoError(t, err)

	// Empty permission list does not restrict.
	_, err = a.Authorize(ctx, editorToken, RouteConfig{RequireAllPermissions: true})
	assert.NoError(t, err)
}

func TestPermissionsPanicsOnMalformedKey(t *testing.T) {
	assert.Panics(t, func() { Permissions(true, "cms") })
}

func serve(h http.Handler, token, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandlerStatuses(t *testing.T) {
	a := newAuthorizer(t)
	var seen *castellan.PermissionContext
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = castellan.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	h := a.Handler(Permissions(true, "cms:view"))(ok)
	rec := serve(h, editorToken, "/cms")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "t1", seen.TenantID)

	rec = serve(h, "", "/cms")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, castellan.ReasonUnauthenticated, decode(t, rec).Error)

	h = a.Handler(RouteConfig{AllowedRoles: []string{"owner"}})(ok)
	rec = serve(h, editorToken, "/cms")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, castellan.ReasonInsufficientRole, decode(t, rec).Error)

	h = a.Handler(RouteConfig{AllowedAdminTypes: []tenant.AdminType{tenant.AdminRoot}})(ok)
	rec = serve(h, editorToken, "/cms")
	assert.Equal(t, castellan.ReasonInvalidAdminType, decode(t, rec).Error)

	h = a.Handler(Permissions(true, "cms:delete"))(ok)
	rec = serve(h, editorToken, "/cms")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, castellan.ReasonInsufficientPermission, decode(t, rec).Error)
}

func TestRequireTenant(t *testing.T) {
	a := newAuthorizer(t)
	mux := http.NewServeMux()
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/tenants/{tenantID}/roles", a.Handler(RouteConfig{})(RequireTenant("tenantID")(inner)))

	rec := serve(mux, editorToken, "/tenants/t1/roles")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, editorToken, "/tenants/t2/roles")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, castellan.ReasonTenantMismatch, decode(t, rec).Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusFor(castellan.ReasonUnauthenticated))
	assert.Equal(t, http.StatusForbidden, StatusFor(castellan.ReasonTenantMismatch))
	assert.Equal(t, http.StatusConflict, StatusFor(castellan.ReasonRoleInUse))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(castellan.ReasonInvalidCatalogReference))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(castellan.ReasonInternal))
}
