package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"userhub/internal/ratelimit"
)

// Scheduler runs the periodic maintenance jobs: enqueueing export-retention
// cleanup for the worker and sweeping stale rate-limit windows.
type Scheduler struct {
	cron    *cron.Cron
	queue   *redis.Client
	stream  string
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

func NewScheduler(queue *redis.Client, stream string, limiter *ratelimit.Limiter, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		queue:   queue,
		stream:  stream,
		limiter: limiter,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.enqueueCleanup); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.sweepRateLimiter); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) enqueueCleanup() {
	if s.queue == nil {
		return
	}
	err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"type": "cleanup"},
	}).Err()
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}

func (s *Scheduler) sweepRateLimiter() {
	s.limiter.Sweep(10 * time.Minute)
}
