package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, opts ...RedisOption) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, opts...), mr
}

func TestRedisCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	require.NoError(t, c.Ping(ctx))

	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok)

	c.Set(ctx, "u1:t1", editorKeys())
	assert.True(t, mr.Exists(DefaultPrefix+"u1:t1"))

	got, ok := c.Get(ctx, "u1:t1")
	require.True(t, ok)
	assert.Equal(t, []string{"cms:create", "cms:view"}, got.Slice())
}

func TestRedisCacheEmptySetIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	c.Set(ctx, "u1:t1", nil)
	got, ok := c.Get(ctx, "u1:t1")
	require.True(t, ok, "an empty resolved set must still be cached")
	assert.Empty(t, got)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, WithRedisTTL(time.Minute))

	c.Set(ctx, "u1:t1", editorKeys())
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok, "expected key to expire")
}

func TestRedisCacheDeleteClear(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, WithPrefix("test:"))

	require.NoError(t, mr.Set("other:key", "keep"))
	c.Set(ctx, "u1:t1", editorKeys())
	c.Set(ctx, "u2:t1", editorKeys())

	c.Delete(ctx, "u1:t1")
	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok)

	c.Clear(ctx)
	_, ok = c.Get(ctx, "u2:t1")
	assert.False(t, ok)
	assert.True(t, mr.Exists("other:key"), "clear removed keys outside the prefix")
}

func TestRedisCacheClearMatchesPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, WithPrefix("app[1]:"))

	c.Set(ctx, "u1:t1", editorKeys())
	require.NoError(t, mr.Set("app1:u1:t1", "foreign"))
	require.NoError(t, mr.Set("app[1]x", "foreign"))

	c.Clear(ctx)

	assert.False(t, mr.Exists("app[1]:u1:t1"))
	assert.True(t, mr.Exists("app1:u1:t1"), "key outside the prefix was deleted")
	assert.True(t, mr.Exists("app[1]x"), "key outside the prefix was deleted")
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, "castellan:perm:", globEscape("castellan:perm:"))
	assert.Equal(t, `a\*b\?c\[d\]e\\`, globEscape(`a*b?c[d]e\`))
}

func TestRedisCacheUnavailableIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	c.Set(ctx, "u1:t1", editorKeys())
	mr.Close()

	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok)
}
