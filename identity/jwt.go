package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/tenant"
)

// Claims are the session claims castellan reads. The subject is the user ID.
type Claims struct {
	TenantID  string           `json:"tid"`
	Role      string           `json:"role,omitempty"`
	AdminType tenant.AdminType `json:"adm"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 session tokens issued by the identity service.
type JWT struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// JWTOption configures the verifier.
type JWTOption func(*JWT)

// WithIssuer requires the iss claim to match.
func WithIssuer(iss string) JWTOption { return func(j *JWT) { j.issuer = iss } }

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) JWTOption { return func(j *JWT) { j.audience = aud } }

// WithLeeway tolerates clock skew on time-based claims.
func WithLeeway(d time.Duration) JWTOption { return func(j *JWT) { j.leeway = d } }

// NewJWT creates a verifier for tokens signed with secret.
func NewJWT(secret []byte, opts ...JWTOption) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("identity: jwt secret is required")
	}
	j := &JWT{secret: secret, leeway: 5 * time.Second}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Verify checks the signature and claims of token.
func (j *JWT) Verify(_ context.Context, token string) (*castellan.PermissionContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", castellan.ErrUnauthenticated)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(j.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return j.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", castellan.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid claims", castellan.ErrUnauthenticated)
	}

	return validate(castellan.PermissionContext{
		UserID:    strings.TrimSpace(claims.Subject),
		TenantID:  strings.TrimSpace(claims.TenantID),
		UserRole:  claims.Role,
		AdminType: claims.AdminType,
	})
}
