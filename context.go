package castellan

import "context"

type contextKey int

const ctxKeyPermission contextKey = iota

// WithPermissionContext returns a context carrying the resolved identity.
// Middleware sets it after authorization succeeds.
func WithPermissionContext(ctx context.Context, pc *PermissionContext) context.Context {
	return context.WithValue(ctx, ctxKeyPermission, pc)
}

// FromContext returns the identity stored by WithPermissionContext.
func FromContext(ctx context.Context) (*PermissionContext, bool) {
	pc, ok := ctx.Value(ctxKeyPermission).(*PermissionContext)
	return pc, ok && pc != nil
}
