package extension

import "time"

// Config holds the castellan extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.castellan" or "castellan" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for castellan routes. Empty mounts the
	// routes at the router root.
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// GroveDatabase selects the grove-backed store ("postgres", "sqlite" or
	// "mongo") built on the grove.DB registered in the DI container. Empty
	// resolves a store.Store from the container instead.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// CacheTTL is how long a resolved permission set stays cached.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheMaxEntries bounds the in-process cache.
	CacheMaxEntries int `json:"cache_max_entries" mapstructure:"cache_max_entries" yaml:"cache_max_entries"`

	// RedisCache shares resolved permission sets through the Redis client
	// registered in the DI container.
	RedisCache bool `json:"redis_cache" mapstructure:"redis_cache" yaml:"redis_cache"`

	// EnforcePlanCeiling caps affiliate users at their tenant's plan package.
	EnforcePlanCeiling bool `json:"enforce_plan_ceiling" mapstructure:"enforce_plan_ceiling" yaml:"enforce_plan_ceiling"`

	// CatalogFile is a YAML catalog seeded on start.
	CatalogFile string `json:"catalog_file" mapstructure:"catalog_file" yaml:"catalog_file"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 10000,
	}
}
