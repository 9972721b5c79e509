// Package extension provides a Forge extension entry point for castellan.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/api"
	"github.com/xraph/castellan/cache"
	"github.com/xraph/castellan/catalog"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/manager"
	"github.com/xraph/castellan/middleware"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/store"
	"github.com/xraph/castellan/store/mongo"
	"github.com/xraph/castellan/store/postgres"
	"github.com/xraph/castellan/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "castellan"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Tenant-scoped role-based access control engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Compile-time interface checks.
var (
	_ forge.Extension = (*Extension)(nil)
	_ castellan.Cache = (*cache.Memory)(nil)
	_ castellan.Cache = (*cache.Redis)(nil)
)

// Extension adapts castellan as a Forge extension.
type Extension struct {
	config     Config
	eng        *castellan.Engine
	mgr        *manager.Manager
	apiHandler *api.API
	authorizer *middleware.Authorizer
	identity   identity.Provider
	logger     *slog.Logger
	engineOpts []castellan.Option
	plugins    []plugin.Plugin
}

// New creates a castellan Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying castellan engine.
func (e *Extension) Engine() *castellan.Engine { return e.eng }

// Manager returns the permission manager.
func (e *Extension) Manager() *manager.Manager { return e.mgr }

// Authorizer returns the request authorizer, or nil without an identity
// provider.
func (e *Extension) Authorizer() *middleware.Authorizer { return e.authorizer }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*castellan.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("castellan: register engine in container: %w", err)
	}

	if err := vessel.Provide(fapp.Container(), func() (*manager.Manager, error) {
		return e.mgr, nil
	}); err != nil {
		return fmt.Errorf("castellan: register manager in container: %w", err)
	}

	if e.authorizer != nil {
		if err := vessel.Provide(fapp.Container(), func() (*middleware.Authorizer, error) {
			return e.authorizer, nil
		}); err != nil {
			return fmt.Errorf("castellan: register authorizer in container: %w", err)
		}
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]castellan.Option, 0, len(e.engineOpts)+len(e.plugins)+4)
	opts = append(opts,
		castellan.WithLogger(logger),
		castellan.WithConfig(castellan.Config{
			CacheTTL:           e.config.CacheTTL,
			CacheMaxEntries:    e.config.CacheMaxEntries,
			EnforcePlanCeiling: e.config.EnforcePlanCeiling,
		}),
	)

	// Build the store from the grove database, or resolve one from the
	// container. Option-provided stores appended below take precedence.
	if e.config.GroveDatabase != "" {
		db, err := forge.Inject[*grove.DB](fapp.Container())
		if err != nil {
			return fmt.Errorf("castellan: resolve grove database: %w", err)
		}
		s, err := newGroveStore(e.config.GroveDatabase, db)
		if err != nil {
			return err
		}
		opts = append(opts, castellan.WithStore(s))
	} else if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, castellan.WithStore(s))
	}

	if e.config.RedisCache {
		client, err := forge.Inject[redis.UniversalClient](fapp.Container())
		if err != nil {
			return fmt.Errorf("castellan: resolve redis client: %w", err)
		}
		opts = append(opts, castellan.WithCache(cache.NewRedis(client,
			cache.WithRedisTTL(e.config.CacheTTL),
			cache.WithLogger(logger),
		)))
	}

	opts = append(opts, e.engineOpts...)

	for _, x := range e.plugins {
		opts = append(opts, castellan.WithPlugin(x))
	}

	eng, err := castellan.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("castellan: create engine: %w", err)
	}
	e.eng = eng
	e.mgr = manager.New(eng)

	if e.identity != nil {
		e.authorizer = middleware.NewAuthorizer(eng, e.identity, middleware.WithLogger(logger))
	}

	router := fapp.Router()
	e.apiHandler = api.New(eng, e.mgr, router)

	if !e.config.DisableRoutes {
		if e.config.BasePath != "" {
			router = router.Group(e.config.BasePath)
		}
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("castellan: register routes: %w", err)
		}
	}

	return nil
}

// newGroveStore builds the grove-backed store for driver.
func newGroveStore(driver string, db *grove.DB) (store.Store, error) {
	switch driver {
	case "postgres", "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo", "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("castellan: unknown grove database driver %q", driver)
	}
}

// Start runs migrations if enabled, seeds the configured catalog file, and
// starts the engine.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("castellan: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("castellan: migration failed: %w", err)
		}
	}

	if e.config.CatalogFile != "" {
		modules, err := catalog.LoadFile(e.config.CatalogFile)
		if err != nil {
			return fmt.Errorf("castellan: load catalog: %w", err)
		}
		if _, err := e.mgr.SeedCatalog(ctx, modules); err != nil {
			return fmt.Errorf("castellan: seed catalog: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the castellan engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("castellan: extension not initialized")
	}
	return e.eng.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all castellan API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
