// Package permset implements the permission set algebra: pure functions over
// sets of (module, action) grants. Nothing here performs I/O or mutates its
// inputs.
//
// Modules and actions are addressed by their catalog slugs. The flattened
// form of a grant is the key "<moduleSlug>:<actionSlug>".
package permset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidKey is returned when a flattened permission key is malformed.
var ErrInvalidKey = errors.New("castellan: invalid permission key")

// Set maps a module slug to the set of granted action slugs. A module is
// present only while it has at least one granted action.
type Set map[string]map[string]struct{}

// New builds a Set from a module -> actions mapping.
func New(grants map[string][]string) Set {
	s := make(Set, len(grants))
	for m, actions := range grants {
		s.Add(m, actions...)
	}
	return s
}

// Of builds a Set granting actions on a single module.
func Of(module string, actions ...string) Set {
	s := make(Set, 1)
	s.Add(module, actions...)
	return s
}

// Add grants actions on module. Slugs are normalized; blank values are
// ignored.
func (s Set) Add(module string, actions ...string) {
	module = normalize(module)
	if module == "" {
		return
	}
	for _, a := range actions {
		a = normalize(a)
		if a == "" {
			continue
		}
		if s[module] == nil {
			s[module] = make(map[string]struct{}, len(actions))
		}
		s[module][a] = struct{}{}
	}
}

// Has reports whether action is granted on module.
func (s Set) Has(module, action string) bool {
	_, ok := s[module][action]
	return ok
}

// Len returns the number of granted (module, action) pairs.
func (s Set) Len() int {
	n := 0
	for _, actions := range s {
		n += len(actions)
	}
	return n
}

// Modules returns the granted module slugs, sorted.
func (s Set) Modules() []string {
	out := make([]string, 0, len(s))
	for m, actions := range s {
		if len(actions) > 0 {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// Actions returns the actions granted on module, sorted.
func (s Set) Actions(module string) []string {
	actions := s[module]
	out := make([]string, 0, len(actions))
	for a := range actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Keys returns the flattened "module:action" keys, sorted.
func (s Set) Keys() []string {
	out := make([]string, 0, s.Len())
	for _, m := range s.Modules() {
		for _, a := range s.Actions(m) {
			out = append(out, m+":"+a)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for m, actions := range s {
		if len(actions) == 0 {
			continue
		}
		cp := make(map[string]struct{}, len(actions))
		for a := range actions {
			cp[a] = struct{}{}
		}
		out[m] = cp
	}
	return out
}

// Equal reports whether both sets grant exactly the same pairs.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for m, actions := range s {
		for a := range actions {
			if !o.Has(m, a) {
				return false
			}
		}
	}
	return true
}

// Map returns the set as module -> sorted actions.
func (s Set) Map() map[string][]string {
	out := make(map[string][]string, len(s))
	for _, m := range s.Modules() {
		out[m] = s.Actions(m)
	}
	return out
}

// MarshalJSON encodes the set as {"module": ["action", ...]}.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON decodes {"module": ["action", ...]}.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("permset: decode: %w", err)
	}
	*s = New(raw)
	return nil
}

// Key returns the flattened permission key for module and action.
func Key(module, action string) string {
	return normalize(module) + ":" + normalize(action)
}

// ParseKey splits a "module:action" key.
func ParseKey(key string) (module, action string, err error) {
	module, action, ok := strings.Cut(normalize(key), ":")
	module, action = strings.TrimSpace(module), strings.TrimSpace(action)
	if !ok || module == "" || action == "" || strings.Contains(action, ":") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return module, action, nil
}

// FromKeys builds a Set from flattened keys. Malformed keys are returned as
// an error alongside the set of the well-formed ones.
func FromKeys(keys []string) (Set, error) {
	s := make(Set)
	var errs []error
	for _, k := range keys {
		m, a, err := ParseKey(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Add(m, a)
	}
	return s, errors.Join(errs...)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
