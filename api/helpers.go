package api

import (
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/id"
)

// mapError maps domain errors to Forge HTTP errors by reason code.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch castellan.Reason(err) {
	case castellan.ReasonNotFound:
		return forge.NotFound(err.Error())
	case castellan.ReasonInsufficientRole,
		castellan.ReasonInsufficientPermission,
		castellan.ReasonTenantMismatch:
		return forge.Forbidden(err.Error())
	case castellan.ReasonInternal:
		return err
	default:
		return forge.BadRequest(err.Error())
	}
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// parseParam parses a path parameter with parse, reporting a 400 on failure.
func parseParam(ctx forge.Context, name string, parse func(string) (id.ID, error)) (id.ID, error) {
	v, err := parse(ctx.Param(name))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid %s: %v", name, err))
	}
	return v, nil
}

// parseOptional parses an optional ID field.
func parseOptional(field, raw string, parse func(string) (id.ID, error)) (*id.ID, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent is not an error
	}
	v, err := parse(raw)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s: %v", field, err))
	}
	return &v, nil
}
