package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/tenant"
)

var secret = []byte("test-secret")

func sign(t *testing.T, key []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		TenantID:  "tnt_1",
		Role:      "editor",
		AdminType: tenant.AdminAffiliate,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr_1",
			Issuer:    "console",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestJWTVerify(t *testing.T) {
	v, err := NewJWT(secret, WithIssuer("console"))
	require.NoError(t, err)

	pc, err := v.Verify(context.Background(), sign(t, secret, jwt.SigningMethodHS256, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, castellan.PermissionContext{
		UserID: "usr_1", TenantID: "tnt_1", UserRole: "editor", AdminType: tenant.AdminAffiliate,
	}, *pc)
}

func TestJWTRejects(t *testing.T) {
	v, err := NewJWT(secret, WithIssuer("console"))
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "elsewhere"

	noTenant := validClaims()
	noTenant.TenantID = ""

	badTier := validClaims()
	badTier.AdminType = "superuser"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": sign(t, []byte("other"), jwt.SigningMethodHS256, validClaims()),
		"wrong alg":    sign(t, secret, jwt.SigningMethodHS512, validClaims()),
		"expired":      sign(t, secret, jwt.SigningMethodHS256, expired),
		"wrong issuer": sign(t, secret, jwt.SigningMethodHS256, wrongIssuer),
		"no tenant":    sign(t, secret, jwt.SigningMethodHS256, noTenant),
		"bad tier":     sign(t, secret, jwt.SigningMethodHS256, badTier),
		"no expiry":    sign(t, secret, jwt.SigningMethodHS256, noExpiry),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, castellan.ErrUnauthenticated)
		})
	}
}

func TestNewJWTRequiresSecret(t *testing.T) {
	_, err := NewJWT(nil)
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	p := Static{"tok": {UserID: "u1", TenantID: "t1", AdminType: tenant.AdminRoot}}

	pc, err := p.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", pc.UserID)

	_, err = p.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, castellan.ErrUnauthenticated)
}

func TestContextProvider(t *testing.T) {
	_, err := Context{}.Verify(context.Background(), "")
	assert.ErrorIs(t, err, castellan.ErrUnauthenticated)

	ctx := castellan.WithPermissionContext(context.Background(),
		&castellan.PermissionContext{UserID: "u1", TenantID: "t1", AdminType: tenant.AdminRoot})
	pc, err := Context{}.Verify(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "t1", pc.TenantID)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}
