package middleware

import (
	"github.com/xraph/forge"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/tenant"
)

// Require enforces cfg on a forge route. On success the identity is
// attached to the underlying request context.
func (a *Authorizer) Require(cfg RouteConfig) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			r := ctx.Request()
			token := identity.BearerToken(r.Header.Get("Authorization"))
			pc, err := a.Authorize(ctx.Context(), token, cfg)
			if err != nil {
				a.logDenied(r, err)
				return denyResponse(ctx, err)
			}
			*r = *r.WithContext(castellan.WithPermissionContext(r.Context(), pc))
			return next(ctx)
		}
	}
}

// RequireTenantParam rejects forge requests whose path tenant differs from
// the authorized identity's tenant. It must run after Require.
func RequireTenantParam(param string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			pc, ok := castellan.FromContext(ctx.Request().Context())
			if !ok {
				return denyResponse(ctx, castellan.ErrUnauthenticated)
			}
			if err := tenant.RequireTenantAccess(pc.TenantID, ctx.Param(param)); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

func denyResponse(ctx forge.Context, err error) error {
	WriteError(ctx.Response(), err)
	return nil
}
