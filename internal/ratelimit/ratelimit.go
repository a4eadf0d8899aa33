package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window counter keyed by (bucket, identity). Windows
// reset lazily when a request arrives after the window has elapsed, so bursts
// straddling a window boundary can pass; that is a known property of the
// algorithm, not a bug.
type Limiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*window
	now     func() time.Time
}

type bucketKey struct {
	bucket   string
	identity string
}

type window struct {
	start time.Time
	count int
}

func New() *Limiter {
	return &Limiter{
		buckets: make(map[bucketKey]*window),
		now:     time.Now,
	}
}

// Allow records a hit and reports whether it stays within limit. When the
// limit is exceeded it returns the seconds remaining until the window resets.
func (l *Limiter) Allow(bucket, identity string, limit int, windowSize time.Duration) (bool, int) {
	now := l.now()
	key := bucketKey{bucket: bucket, identity: identity}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.buckets[key]
	if !ok || now.Sub(w.start) >= windowSize {
		w = &window{start: now}
		l.buckets[key] = w
	}
	w.count++

	if w.count > limit {
		retryIn := int((windowSize - now.Sub(w.start)).Seconds())
		if retryIn < 1 {
			retryIn = 1
		}
		return false, retryIn
	}
	return true, 0
}

// Sweep drops windows idle longer than maxAge. Called from the cron scheduler
// to keep the bucket map from growing without bound.
func (l *Limiter) Sweep(maxAge time.Duration) {
	cutoff := l.now().Add(-maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.buckets {
		if w.start.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
