package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBlacklist_MemoryFallback(t *testing.T) {
	t.Parallel()

	bl := New(nil, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, bl.Contains(ctx, "jti-1"))

	bl.Add(ctx, "jti-1", time.Minute)
	assert.True(t, bl.Contains(ctx, "jti-1"))
	assert.False(t, bl.Contains(ctx, "jti-2"))
}

func TestBlacklist_ExpiredEntriesDrop(t *testing.T) {
	t.Parallel()

	bl := New(nil, zerolog.Nop())
	ctx := context.Background()

	bl.Add(ctx, "short", 20*time.Millisecond)
	assert.True(t, bl.Contains(ctx, "short"))

	time.Sleep(40 * time.Millisecond)
	assert.False(t, bl.Contains(ctx, "short"))
}

func TestBlacklist_NonPositiveTTLIgnored(t *testing.T) {
	t.Parallel()

	bl := New(nil, zerolog.Nop())
	ctx := context.Background()

	bl.Add(ctx, "expired-already", -time.Second)
	assert.False(t, bl.Contains(ctx, "expired-already"))
}
