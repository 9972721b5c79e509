package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/store/memory"
)

func TestNewDefaults(t *testing.T) {
	e := New()
	assert.Equal(t, ExtensionName, e.Name())
	assert.Equal(t, 5*time.Minute, e.config.CacheTTL)
	assert.Equal(t, 10000, e.config.CacheMaxEntries)
	assert.Nil(t, e.Engine())
	assert.Error(t, e.Health(t.Context()))
	assert.NoError(t, e.Stop(t.Context()))
}

func TestOptions(t *testing.T) {
	e := New(
		WithStore(memory.New()),
		WithDisableRoutes(),
		WithDisableMigrate(),
		WithGroveDatabase("sqlite"),
		WithIdentity(identity.Static{}),
	)
	assert.True(t, e.config.DisableRoutes)
	assert.True(t, e.config.DisableMigrate)
	assert.Equal(t, "sqlite", e.config.GroveDatabase)
	assert.Len(t, e.engineOpts, 1)
	assert.NotNil(t, e.identity)

	e = New(WithConfig(Config{BasePath: "/authz"}))
	assert.Equal(t, "/authz", e.config.BasePath)
}

func TestNewGroveStoreRejectsUnknownDriver(t *testing.T) {
	_, err := newGroveStore("oracle", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
