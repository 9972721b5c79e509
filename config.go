package castellan

import "time"

// Config holds configuration for the castellan engine.
type Config struct {
	// CacheTTL is how long a resolved permission set stays cached.
	// Zero keeps entries until they are invalidated or evicted.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// CacheMaxEntries bounds the default in-process cache. Zero is unbounded.
	CacheMaxEntries int `json:"cache_max_entries,omitempty"`

	// EnforcePlanCeiling caps affiliate users at the modules granted by
	// their tenant's plan package.
	EnforcePlanCeiling bool `json:"enforce_plan_ceiling,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 10000,
	}
}
