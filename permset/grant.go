package permset

import "github.com/xraph/castellan/id"

// SourceKind tags where a Grant came from.
type SourceKind string

const (
	// SourceRole marks a grant owned by a role.
	SourceRole SourceKind = "role"

	// SourcePackage marks a grant owned by a permission package.
	SourcePackage SourceKind = "package"
)

// Grant is a permission set tagged with its source: a Role or a Package.
// Both reduce to a Set through Merge; the algebra never branches on Kind.
type Grant struct {
	Kind        SourceKind `json:"kind"`
	SourceID    id.ID      `json:"source_id"`
	Permissions Set        `json:"permissions"`
}

// RoleGrant tags s as owned by a role.
func RoleGrant(roleID id.RoleID, s Set) Grant {
	return Grant{Kind: SourceRole, SourceID: roleID, Permissions: s}
}

// PackageGrant tags s as owned by a permission package.
func PackageGrant(packageID id.PackageID, s Set) Grant {
	return Grant{Kind: SourcePackage, SourceID: packageID, Permissions: s}
}

// MergeGrants merges the permissions of every grant.
func MergeGrants(grants ...Grant) Set {
	sets := make([]Set, len(grants))
	for i, g := range grants {
		sets[i] = g.Permissions
	}
	return Merge(sets...)
}

// KeySet is a flattened set of "module:action" keys. It is the cached form of
// a user's effective permissions.
type KeySet map[string]struct{}

// Flatten converts s to its key form.
func Flatten(s Set) KeySet {
	ks := make(KeySet, s.Len())
	for m, actions := range s {
		for a := range actions {
			ks[m+":"+a] = struct{}{}
		}
	}
	return ks
}

// Has reports whether key is present.
func (ks KeySet) Has(key string) bool {
	_, ok := ks[key]
	return ok
}

// Slice returns the keys sorted.
func (ks KeySet) Slice() []string {
	s, _ := FromKeys(ks.keys()) //nolint:errcheck // keys in a KeySet are always well formed
	return s.Keys()
}

// Set expands the keys back into a Set.
func (ks KeySet) Set() Set {
	s, _ := FromKeys(ks.keys()) //nolint:errcheck // keys in a KeySet are always well formed
	return s
}

func (ks KeySet) keys() []string {
	out := make([]string, 0, len(ks))
	for k := range ks {
		out = append(out, k)
	}
	return out
}
