package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStore_MemoryFallback_SetGet(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "users:list:page=1", map[string]int{"total": 5}, time.Minute)

	var out map[string]int
	assert.True(t, store.Get(ctx, "users:list:page=1", &out))
	assert.Equal(t, 5, out["total"])

	assert.False(t, store.Get(ctx, "users:list:page=2", &out))
}

func TestStore_MemoryFallback_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "key", "value", 30*time.Millisecond)

	var out string
	assert.True(t, store.Get(ctx, "key", &out))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, store.Get(ctx, "key", &out))
}

func TestStore_InvalidatePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "users:list:a", 1, time.Minute)
	store.Set(ctx, "users:list:b", 2, time.Minute)
	store.Set(ctx, "other:key", 3, time.Minute)

	store.InvalidatePrefix(ctx, "users:list:")

	var out int
	assert.False(t, store.Get(ctx, "users:list:a", &out))
	assert.False(t, store.Get(ctx, "users:list:b", &out))
	assert.True(t, store.Get(ctx, "other:key", &out))
	assert.Equal(t, 3, out)
}
