package castellan

import (
	"context"

	"github.com/xraph/forge"
)

// TenantFromContext returns the tenant a request is scoped to. The
// authorized PermissionContext wins; otherwise the forge.Scope organization
// is used. Empty means the request carries no tenant.
func TenantFromContext(ctx context.Context) string {
	if pc, ok := FromContext(ctx); ok {
		return pc.TenantID
	}
	if s, ok := forge.ScopeFrom(ctx); ok {
		return s.OrgID()
	}
	return ""
}
