package extension

import (
	"log/slog"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/store"
)

// ExtOption configures the castellan Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, castellan.WithStore(s))
	}
}

// WithCache sets the permission set cache.
func WithCache(c castellan.Cache) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, castellan.WithCache(c))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...castellan.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithIdentity sets the provider that turns bearer tokens into permission
// contexts. It enables the middleware.Authorizer in the DI container.
func WithIdentity(p identity.Provider) ExtOption {
	return func(e *Extension) {
		e.identity = p
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithGroveDatabase builds the store for driver ("postgres", "sqlite" or
// "mongo") on the grove.DB registered in the DI container.
func WithGroveDatabase(driver string) ExtOption {
	return func(e *Extension) {
		e.config.GroveDatabase = driver
	}
}
