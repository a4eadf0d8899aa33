package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is a read-through, string-keyed, TTL cache. Redis is the primary
// backend; when no client is available (or a call fails) it falls back to a
// mutex-guarded in-process map. Cache failures never fail the request.
type Store struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.Mutex
	memory map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewStore(client *redis.Client, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		log:    log,
		memory: make(map[string]memoryEntry),
	}
}

// Get unmarshals the cached value into out and reports whether the key was
// present and unexpired.
func (s *Store) Get(ctx context.Context, key string, out any) bool {
	if s.client != nil {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				s.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
			}
			return false
		}
		return json.Unmarshal(data, out) == nil
	}

	s.mu.Lock()
	entry, ok := s.memory[key]
	if ok && !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		delete(s.memory, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(entry.payload, out) == nil
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}

	if s.client != nil {
		if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		return
	}

	s.mu.Lock()
	s.memory[key] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// InvalidatePrefix drops every key under the given prefix. Coarse on purpose:
// any user mutation clears the whole listing namespace.
func (s *Store) InvalidatePrefix(ctx context.Context, prefix string) {
	if s.client != nil {
		iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				s.log.Warn().Err(err).Str("key", iter.Val()).Msg("cache invalidate failed")
			}
		}
		if err := iter.Err(); err != nil {
			s.log.Warn().Err(err).Str("prefix", prefix).Msg("cache scan failed")
		}
		return
	}

	s.mu.Lock()
	for key := range s.memory {
		if strings.HasPrefix(key, prefix) {
			delete(s.memory, key)
		}
	}
	s.mu.Unlock()
}
