package tenant

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatch is returned when a request crosses a tenant boundary.
	ErrMismatch = errors.New("castellan: tenant mismatch")

	// ErrInvalidHierarchy is returned when a tenant violates the one-level
	// root/affiliate hierarchy.
	ErrInvalidHierarchy = errors.New("castellan: invalid tenant hierarchy")
)

// Scoped is implemented by any tenant-stamped record.
type Scoped interface {
	GetTenantID() string
}

// EnsureTenantAccess reports whether a user in userTenantID may touch data in
// requestedTenantID. Strict equality; there is no wildcard tenant.
func EnsureTenantAccess(userTenantID, requestedTenantID string) bool {
	return userTenantID != "" && userTenantID == requestedTenantID
}

// RequireTenantAccess is EnsureTenantAccess in error form.
func RequireTenantAccess(userTenantID, requestedTenantID string) error {
	if !EnsureTenantAccess(userTenantID, requestedTenantID) {
		return fmt.Errorf("%w: %q may not access %q", ErrMismatch, userTenantID, requestedTenantID)
	}
	return nil
}

// IsValidAffiliateChild reports whether the affiliate's declared parent is
// rootTenantID.
func IsValidAffiliateChild(affiliateTenantID, rootTenantID string, affiliateRootID *string) bool {
	if affiliateRootID == nil || rootTenantID == "" {
		return false
	}
	if affiliateTenantID == rootTenantID {
		return false
	}
	return *affiliateRootID == rootTenantID
}

// CanManageTenant reports whether an administrator may manage the target
// tenant. Root admins manage any tenant. Affiliate admins manage only their
// own tenant, never another affiliate, even a sibling under the same root.
func CanManageTenant(userAdminType AdminType, userTenantID, targetTenantID string, targetAdminType AdminType) bool {
	switch userAdminType {
	case AdminRoot:
		return true
	case AdminAffiliate:
		// targetAdminType is irrelevant: only the affiliate's own tenant qualifies.
		return userTenantID != "" && userTenantID == targetTenantID
	default:
		return false
	}
}

// ScopeToTenant returns the items stamped with tenantID, preserving order.
// Run it before any permission check sees the collection.
func ScopeToTenant[T Scoped](items []T, tenantID string) []T {
	out := make([]T, 0, len(items))
	if tenantID == "" {
		return out
	}
	for _, it := range items {
		if it.GetTenantID() == tenantID {
			out = append(out, it)
		}
	}
	return out
}

// ValidateHierarchy checks t against its parent. A root tenant must have no
// parent; an affiliate must name an existing, active root tenant.
func ValidateHierarchy(t, parent *Tenant) error {
	switch t.AdminType {
	case AdminRoot:
		if t.RootAdminID != nil {
			return fmt.Errorf("%w: root tenant %q cannot have a parent", ErrInvalidHierarchy, t.Slug)
		}
		return nil
	case AdminAffiliate:
		if t.RootAdminID == nil {
			return fmt.Errorf("%w: affiliate %q requires a root parent", ErrInvalidHierarchy, t.Slug)
		}
		if parent == nil || parent.ID != *t.RootAdminID {
			return fmt.Errorf("%w: affiliate %q parent %s not found", ErrInvalidHierarchy, t.Slug, t.RootAdminID)
		}
		if parent.AdminType != AdminRoot {
			return fmt.Errorf("%w: affiliate %q parent %q is not a root tenant", ErrInvalidHierarchy, t.Slug, parent.Slug)
		}
		if !parent.IsActive {
			return fmt.Errorf("%w: affiliate %q parent %q is inactive", ErrInvalidHierarchy, t.Slug, parent.Slug)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown admin type %q", ErrInvalidHierarchy, t.AdminType)
	}
}
