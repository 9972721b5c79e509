package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/castellan/permset"
)

// DefaultPrefix namespaces castellan keys in a shared Redis.
const DefaultPrefix = "castellan:perm:"

// Redis caches key sets in Redis as JSON arrays so every replica sees the
// same entries and the same invalidations. Redis failures are logged and
// treated as misses; the engine then resolves from the store.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix. Glob metacharacters in p are matched
// literally by Clear.
func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

// WithRedisTTL sets the entry expiration. Zero never expires.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithLogger sets the logger for Redis errors.
func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultPrefix,
		ttl:    5 * time.Minute,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the cached key set.
func (r *Redis) Get(ctx context.Context, key string) (permset.KeySet, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logError("get", key, err)
		}
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		r.logError("decode", key, err)
		return nil, false
	}
	ks := make(permset.KeySet, len(list))
	for _, k := range list {
		ks[k] = struct{}{}
	}
	return ks, true
}

// Set stores keys, replacing any previous value.
func (r *Redis) Set(ctx context.Context, key string, keys permset.KeySet) {
	list := make([]string, 0, len(keys))
	for k := range keys {
		list = append(list, k)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		r.logError("encode", key, err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		r.logError("set", key, err)
	}
}

// Delete removes a single entry.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logError("delete", key, err)
	}
}

// Clear removes every entry under the prefix.
func (r *Redis) Clear(ctx context.Context) {
	match := globEscape(r.prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, 500).Result()
		if err != nil {
			r.logError("scan", match, err)
			return
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logError("clear", match, err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// globEscape quotes the characters SCAN MATCH treats as pattern syntax.
func globEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Redis) logError(op, key string, err error) {
	r.logger.Warn("castellan: redis cache error",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
