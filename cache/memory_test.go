package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/castellan/permset"
)

func editorKeys() permset.KeySet {
	return permset.Flatten(permset.Of("cms", "view", "create"))
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok, "expected cache miss")

	c.Set(ctx, "u1:t1", editorKeys())
	got, ok := c.Get(ctx, "u1:t1")
	require.True(t, ok, "expected cache hit")
	assert.True(t, got.Has("cms:view"))
	assert.False(t, got.Has("cms:delete"))
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(10 * time.Millisecond))

	c.Set(ctx, "u1:t1", editorKeys())
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok, "expected expired entry")
}

func TestMemoryCacheSetCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	ks := editorKeys()
	c.Set(ctx, "u1:t1", ks)
	ks["cms:delete"] = struct{}{}

	got, ok := c.Get(ctx, "u1:t1")
	require.True(t, ok)
	assert.False(t, got.Has("cms:delete"), "cache shared the caller's map")
}

func TestMemoryCacheDeleteClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1:t1", editorKeys())
	c.Set(ctx, "u2:t1", editorKeys())
	c.Set(ctx, "u1:t2", editorKeys())

	c.Delete(ctx, "u1:t1")
	_, ok := c.Get(ctx, "u1:t1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "u1:t2")
	assert.True(t, ok, "delete touched another tenant's entry")

	c.Clear(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(3))

	for i := range 5 {
		c.Set(ctx, fmt.Sprintf("u%d:t1", i), editorKeys())
	}
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get(ctx, "u0:t1")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get(ctx, "u4:t1")
	assert.True(t, ok)
}
