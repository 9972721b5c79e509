package castellan

import (
	"context"

	"github.com/xraph/castellan/permset"
)

// Cache stores resolved permission sets keyed by CacheKey. Values are
// replaced whole; implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached key set, if present.
	Get(ctx context.Context, key string) (permset.KeySet, bool)

	// Set stores the key set, replacing any previous value.
	Set(ctx context.Context, key string, keys permset.KeySet)

	// Delete removes a single entry.
	Delete(ctx context.Context, key string)

	// Clear removes every entry.
	Clear(ctx context.Context)
}

// CacheKey returns the cache key for a user in a tenant.
func CacheKey(userID, tenantID string) string {
	return userID + ":" + tenantID
}
