package castellan

import (
	"errors"

	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/tenant"
)

// Request rejections. Each is distinct so callers can tell "not logged in"
// from "not allowed" from "wrong tenant".
var (
	// ErrUnauthenticated is returned when no valid identity is present.
	ErrUnauthenticated = errors.New("castellan: unauthenticated")

	// ErrInsufficientRole is returned when the user's role is not allowed.
	ErrInsufficientRole = errors.New("castellan: insufficient role")

	// ErrInvalidAdminType is returned when the user's admin tier is not allowed.
	ErrInvalidAdminType = errors.New("castellan: invalid admin type")

	// ErrInsufficientPermission is returned when required permissions are missing.
	ErrInsufficientPermission = errors.New("castellan: insufficient permission")

	// ErrTenantMismatch is returned when a request crosses a tenant boundary.
	ErrTenantMismatch = tenant.ErrMismatch

	// ErrInvalidCatalogReference is returned when a permission set names an
	// unknown module or action. It blocks the save.
	ErrInvalidCatalogReference = permset.ErrInvalidReference
)

// Management errors.
var (
	// ErrNotFound is returned by every store when an entity does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrConflict is returned by every store on a uniqueness violation.
	ErrConflict = store.ErrConflict

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("castellan: role not found")

	// ErrRoleInUse is returned when deleting a role that is still assigned.
	ErrRoleInUse = errors.New("castellan: role is still assigned")

	// ErrSystemRoleImmutable is returned when trying to delete a system role.
	ErrSystemRoleImmutable = errors.New("castellan: system role cannot be deleted")

	// ErrPackageNotFound is returned when a package cannot be found.
	ErrPackageNotFound = errors.New("castellan: package not found")

	// ErrPackageInactive is returned when applying a deactivated package.
	ErrPackageInactive = errors.New("castellan: package is inactive")

	// ErrPackageNotApplicable is returned when a package tier does not match
	// the target tenant.
	ErrPackageNotApplicable = errors.New("castellan: package not applicable to tenant")

	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("castellan: tenant not found")

	// ErrTenantInactive is returned when writing into a deactivated tenant.
	ErrTenantInactive = errors.New("castellan: tenant is inactive")

	// ErrInvalidHierarchy is returned when a tenant breaks the root/affiliate
	// hierarchy.
	ErrInvalidHierarchy = tenant.ErrInvalidHierarchy

	// ErrDuplicateAssignment is returned when a user already holds a role.
	ErrDuplicateAssignment = errors.New("castellan: role already assigned to user")
)

// Stable reason codes for the presentation layer.
const (
	ReasonUnauthenticated         = "unauthenticated"
	ReasonInsufficientRole        = "insufficient_role"
	ReasonInvalidAdminType        = "invalid_admin_type"
	ReasonInsufficientPermission  = "insufficient_permission"
	ReasonTenantMismatch          = "tenant_mismatch"
	ReasonInvalidCatalogReference = "invalid_catalog_reference"
	ReasonNotFound                = "not_found"
	ReasonConflict                = "conflict"
	ReasonRoleInUse               = "role_in_use"
	ReasonImmutable               = "immutable"
	ReasonInvalidHierarchy        = "invalid_hierarchy"
	ReasonInactive                = "inactive"
	ReasonInternal                = "internal"
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrUnauthenticated, ReasonUnauthenticated},
	{ErrInsufficientRole, ReasonInsufficientRole},
	{ErrInvalidAdminType, ReasonInvalidAdminType},
	{ErrInsufficientPermission, ReasonInsufficientPermission},
	{ErrTenantMismatch, ReasonTenantMismatch},
	{ErrInvalidCatalogReference, ReasonInvalidCatalogReference},
	{ErrRoleInUse, ReasonRoleInUse},
	{ErrSystemRoleImmutable, ReasonImmutable},
	{ErrInvalidHierarchy, ReasonInvalidHierarchy},
	{ErrPackageNotApplicable, ReasonInsufficientPermission},
	{ErrPackageInactive, ReasonInactive},
	{ErrTenantInactive, ReasonInactive},
	{ErrDuplicateAssignment, ReasonConflict},
	{ErrConflict, ReasonConflict},
	{ErrRoleNotFound, ReasonNotFound},
	{ErrPackageNotFound, ReasonNotFound},
	{ErrTenantNotFound, ReasonNotFound},
	{ErrNotFound, ReasonNotFound},
}

// Reason maps err to a stable reason code. Nil maps to "".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonInternal
}
