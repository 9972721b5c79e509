package permset

import (
	"sort"
	"strings"

	"github.com/xraph/castellan/tenant"
)

// Merge returns the union of all inputs. It is commutative, associative and
// idempotent.
func Merge(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		for m, actions := range s {
			for a := range actions {
				out.Add(m, a)
			}
		}
	}
	return out
}

// Intersect returns the grants present in both a and b.
func Intersect(a, b Set) Set {
	out := make(Set)
	for m, actions := range a {
		for act := range actions {
			if b.Has(m, act) {
				out.Add(m, act)
			}
		}
	}
	return out
}

// DiffResult is the per-module difference between two sets.
type DiffResult struct {
	// Added holds grants present only in the after set.
	Added Set `json:"added"`

	// Removed holds grants present only in the before set.
	Removed Set `json:"removed"`

	// Unchanged lists modules whose action lists are identical, sorted.
	Unchanged []string `json:"unchanged"`
}

// IsEmpty reports whether nothing was added or removed.
func (d DiffResult) IsEmpty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Diff compares before and after module by module. Two modules are unchanged
// only when their sorted, comma-joined action lists are byte-identical. A
// module on one side only contributes entirely to Added or Removed; a module
// on both sides with different lists contributes its new actions to Added
// and its revoked actions to Removed.
func Diff(before, after Set) DiffResult {
	res := DiffResult{Added: make(Set), Removed: make(Set), Unchanged: []string{}}

	for _, m := range before.Modules() {
		if len(after[m]) == 0 {
			res.Removed.Add(m, before.Actions(m)...)
			continue
		}
		if serialize(before, m) == serialize(after, m) {
			res.Unchanged = append(res.Unchanged, m)
			continue
		}
		for _, a := range before.Actions(m) {
			if !after.Has(m, a) {
				res.Removed.Add(m, a)
			}
		}
		for _, a := range after.Actions(m) {
			if !before.Has(m, a) {
				res.Added.Add(m, a)
			}
		}
	}
	for _, m := range after.Modules() {
		if len(before[m]) == 0 {
			res.Added.Add(m, after.Actions(m)...)
		}
	}

	sort.Strings(res.Unchanged)
	return res
}

func serialize(s Set, module string) string {
	return strings.Join(s.Actions(module), ",")
}

// FilterByScope caps a set by tenant tier. Root returns the input unchanged.
// Any other tier keeps only the modules present in allowed, the affiliate's
// plan ceiling; a nil allowed yields an empty set.
func FilterByScope(s Set, adminType tenant.AdminType, allowed Set) Set {
	if adminType == tenant.AdminRoot {
		return s.Clone()
	}
	out := make(Set)
	if allowed == nil {
		return out
	}
	for m, actions := range s {
		if len(allowed[m]) == 0 {
			continue
		}
		for a := range actions {
			out.Add(m, a)
		}
	}
	return out
}

// CanPerform reports whether s grants action on module.
func CanPerform(s Set, module, action string) bool {
	return s.Has(module, action)
}
