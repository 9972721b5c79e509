// Package cache provides permission set caches for the castellan engine:
// an in-process LRU with TTL and a Redis-backed cache shared across
// replicas. Both replace values whole on Set.
package cache

import (
	"github.com/xraph/castellan/permset"
)

func cloneKeys(ks permset.KeySet) permset.KeySet {
	out := make(permset.KeySet, len(ks))
	for k := range ks {
		out[k] = struct{}{}
	}
	return out
}
