// Package identity adapts trusted session artifacts into a
// castellan.PermissionContext. castellan never verifies credentials itself;
// a Provider does, and the middleware trusts its result.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/castellan"
)

// Provider verifies a session token and returns the identity it carries.
// Every failure wraps castellan.ErrUnauthenticated.
type Provider interface {
	Verify(ctx context.Context, token string) (*castellan.PermissionContext, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, token string) (*castellan.PermissionContext, error)

// Verify calls f.
func (f ProviderFunc) Verify(ctx context.Context, token string) (*castellan.PermissionContext, error) {
	return f(ctx, token)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Static maps opaque tokens to fixed identities. It serves development setups
// and tests.
type Static map[string]castellan.PermissionContext

// Verify looks the token up.
func (s Static) Verify(_ context.Context, token string) (*castellan.PermissionContext, error) {
	pc, ok := s[token]
	if token == "" || !ok {
		return nil, fmt.Errorf("%w: unknown token", castellan.ErrUnauthenticated)
	}
	return validate(pc)
}

// Context trusts an identity an upstream layer already placed on the
// request context with castellan.WithPermissionContext. The token is ignored.
type Context struct{}

// Verify returns the context identity.
func (Context) Verify(ctx context.Context, _ string) (*castellan.PermissionContext, error) {
	pc, ok := castellan.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no identity on context", castellan.ErrUnauthenticated)
	}
	return validate(*pc)
}

// validate rejects identities missing a user, a tenant or a known tier.
func validate(pc castellan.PermissionContext) (*castellan.PermissionContext, error) {
	if !pc.Valid() {
		return nil, fmt.Errorf("%w: identity lacks user or tenant", castellan.ErrUnauthenticated)
	}
	if !pc.AdminType.Valid() {
		return nil, fmt.Errorf("%w: admin type %q", castellan.ErrUnauthenticated, pc.AdminType)
	}
	return &pc, nil
}

