package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/id"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	internal := errors.New("connection reset")
	assert.Same(t, internal, mapError(internal), "internal errors pass through")

	for _, err := range []error{
		fmt.Errorf("%w: r1", castellan.ErrRoleNotFound),
		castellan.ErrTenantMismatch,
		castellan.ErrRoleInUse,
		castellan.ErrInvalidCatalogReference,
	} {
		assert.Error(t, mapError(err))
	}
}

func TestDefaultLimit(t *testing.T) {
	assert.Equal(t, 50, defaultLimit(0))
	assert.Equal(t, 50, defaultLimit(-3))
	assert.Equal(t, 20, defaultLimit(20))
	assert.Equal(t, 1000, defaultLimit(5000))
}

func TestParseOptional(t *testing.T) {
	got, err := parseOptional("role_id", "", id.ParseRoleID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	rid := id.NewRoleID()
	got, err = parseOptional("role_id", rid.String(), id.ParseRoleID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, rid.String(), got.String())
	}

	_, err = parseOptional("role_id", id.NewTenantID().String(), id.ParseRoleID)
	assert.Error(t, err)
}

func TestSubjectRequest(t *testing.T) {
	pc := SubjectRequest{UserID: "u1", TenantID: "t1", AdminType: "affiliate"}.PermissionContext()
	assert.True(t, pc.Valid())
	assert.Equal(t, "affiliate", string(pc.AdminType))
}
