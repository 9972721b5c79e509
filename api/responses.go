package api

import (
	"github.com/xraph/castellan"
	"github.com/xraph/castellan/permset"
)

// CheckResponse is the response for a permission check.
type CheckResponse struct {
	Allowed bool            `json:"allowed" description:"Whether the check passed"`
	Results map[string]bool `json:"results" description:"Per-permission outcome"`
}

// MenuResponse lists the modules the user may see, in menu order.
type MenuResponse struct {
	Modules []castellan.ModuleMenuConfig `json:"modules" description:"Accessible modules"`
}

// EffectiveResponse lists a user's effective permission keys.
type EffectiveResponse struct {
	Permissions []string `json:"permissions" description:"Sorted module:action keys"`
}

// DiffResponse reports what a role update changed.
type DiffResponse struct {
	Added     permset.Set `json:"added" description:"Grants gained"`
	Removed   permset.Set `json:"removed" description:"Grants lost"`
	Unchanged []string    `json:"unchanged" description:"Modules left as they were"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T `json:"items" description:"List of items"`
	Limit  int `json:"limit" description:"Page size"`
	Offset int `json:"offset" description:"Page offset"`
}

func toDiffResponse(d permset.DiffResult) *DiffResponse {
	return &DiffResponse{Added: d.Added, Removed: d.Removed, Unchanged: d.Unchanged}
}
