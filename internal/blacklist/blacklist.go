package blacklist

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Blacklist holds revoked token IDs until their natural expiry. Redis is the
// primary backend so revocation survives restarts and spans replicas; without
// a client it degrades to a mutex-guarded in-process set.
type Blacklist struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.Mutex
	memory map[string]time.Time
}

const keyPrefix = "blacklist:jti:"

func New(client *redis.Client, log zerolog.Logger) *Blacklist {
	return &Blacklist{
		client: client,
		log:    log,
		memory: make(map[string]time.Time),
	}
}

func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	if b.client != nil {
		if err := b.client.Set(ctx, keyPrefix+jti, "1", ttl).Err(); err != nil {
			b.log.Warn().Err(err).Str("jti", jti).Msg("blacklist add failed, falling back to memory")
		} else {
			return
		}
	}

	b.mu.Lock()
	b.memory[jti] = time.Now().Add(ttl)
	b.mu.Unlock()
}

func (b *Blacklist) Contains(ctx context.Context, jti string) bool {
	if b.client != nil {
		n, err := b.client.Exists(ctx, keyPrefix+jti).Result()
		if err == nil {
			if n > 0 {
				return true
			}
		} else {
			b.log.Warn().Err(err).Str("jti", jti).Msg("blacklist lookup failed")
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.memory[jti]
	if !ok {
		return false
	}
	if expiry.Before(time.Now()) {
		delete(b.memory, jti)
		return false
	}
	return true
}
