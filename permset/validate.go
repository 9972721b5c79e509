package permset

import (
	"errors"
	"fmt"

	"github.com/xraph/castellan/catalog"
)

// ErrInvalidReference is the sentinel wrapped by every ReferenceError.
var ErrInvalidReference = errors.New("castellan: invalid catalog reference")

// ReferenceError names a grant that does not resolve against the catalog.
type ReferenceError struct {
	Module string `json:"module"`

	// Action is empty when the module itself is unknown.
	Action string `json:"action,omitempty"`
}

func (e *ReferenceError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("unknown module %q", e.Module)
	}
	return fmt.Sprintf("unknown action %q in module %q", e.Action, e.Module)
}

// Unwrap lets errors.Is match ErrInvalidReference.
func (e *ReferenceError) Unwrap() error { return ErrInvalidReference }

// Validation is the outcome of ValidateAgainstCatalog.
type Validation struct {
	Valid  bool              `json:"is_valid"`
	Errors []*ReferenceError `json:"errors,omitempty"`
}

// Err returns nil when valid, otherwise all reference errors joined.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	errs := make([]error, len(v.Errors))
	for i, e := range v.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// ValidateAgainstCatalog checks that every module in s exists in modules and
// that every action exists in actions. When the module is known, the action
// must also belong to it. Unknown references are reported, never stripped.
func ValidateAgainstCatalog(s Set, modules []catalog.Module, actions []catalog.Action) Validation {
	known := make(map[string]catalog.Module, len(modules))
	for _, m := range modules {
		known[m.Slug] = m
	}

	var errs []*ReferenceError
	for _, slug := range s.Modules() {
		mod, moduleOK := known[slug]
		if !moduleOK {
			errs = append(errs, &ReferenceError{Module: slug})
		}
		for _, a := range s.Actions(slug) {
			if !actionExists(actions, a, mod, moduleOK) {
				errs = append(errs, &ReferenceError{Module: slug, Action: a})
			}
		}
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

func actionExists(actions []catalog.Action, slug string, mod catalog.Module, moduleKnown bool) bool {
	for _, a := range actions {
		if a.Slug != slug {
			continue
		}
		if !moduleKnown || a.ModuleID.IsNil() || a.ModuleID.String() == mod.ID.String() {
			return true
		}
	}
	return false
}

// Universe returns every Module x Action pair the catalog defines.
func Universe(modules []catalog.Module) Set {
	s := make(Set, len(modules))
	for _, m := range modules {
		for _, a := range m.Actions {
			s.Add(m.Slug, a.Slug)
		}
	}
	return s
}
