package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"userhub/internal/repository"
)

const (
	JobStatusQueued   = "queued"
	JobStatusFinished = "finished"
	JobStatusUnknown  = "unknown"

	jobStatusKeyPrefix = "export:job:"
	exportBatchLimit   = 10000
)

type ExportService struct {
	users        UserStore
	queue        *redis.Client
	stream       string
	jobStatusTTL time.Duration
	log          zerolog.Logger
}

func NewExportService(users UserStore, queue *redis.Client, stream string, jobStatusTTL time.Duration, log zerolog.Logger) *ExportService {
	return &ExportService{
		users:        users,
		queue:        queue,
		stream:       stream,
		jobStatusTTL: jobStatusTTL,
		log:          log,
	}
}

// RenderCSV writes the full (non-deleted) user set as CSV, id ascending.
func (s *ExportService) RenderCSV(ctx context.Context) ([]byte, error) {
	users, _, err := s.users.List(ctx, repository.ListFilter{
		SortBy:  "id",
		SortDir: "asc",
		Limit:   exportBatchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"id", "name", "email", "role", "created_at", "is_active"}); err != nil {
		return nil, err
	}
	for _, u := range users {
		record := []string{
			strconv.FormatInt(u.ID, 10),
			u.Name,
			u.Email,
			string(u.Role),
			u.CreatedAt.Format(time.RFC3339),
			strconv.FormatBool(u.IsActive),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Enqueue queues an export task for the worker and returns its job id. An
// empty id with nil error means the queue is unavailable and the caller
// should fall back to a synchronous export. The status key is written before
// the stream entry so a fast worker's "finished" can never be overwritten by
// a late "queued".
func (s *ExportService) Enqueue(ctx context.Context) (string, error) {
	if s.queue == nil {
		return "", nil
	}

	jobID := ksuid.New().String()
	if err := s.queue.Set(ctx, jobStatusKey(jobID), JobStatusQueued, s.jobStatusTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("job status set failed, falling back to sync")
		return "", nil
	}

	err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":   "export",
			"job_id": jobID,
		},
	}).Err()
	if err != nil {
		s.queue.Del(ctx, jobStatusKey(jobID))
		s.log.Warn().Err(err).Msg("export enqueue failed, falling back to sync")
		return "", nil
	}
	return jobID, nil
}

// JobInfo is the job-status payload. ObjectKey is only present once the
// worker has uploaded the artifact.
type JobInfo struct {
	Status    string `json:"status"`
	ObjectKey string `json:"object_key,omitempty"`
}

func (s *ExportService) JobStatus(ctx context.Context, jobID string) JobInfo {
	if s.queue == nil {
		return JobInfo{Status: JobStatusUnknown}
	}
	status, err := s.queue.Get(ctx, jobStatusKey(jobID)).Result()
	if err != nil {
		return JobInfo{Status: JobStatusUnknown}
	}

	info := JobInfo{Status: status}
	if status == JobStatusFinished {
		if key, err := s.queue.Get(ctx, jobObjectKey(jobID)).Result(); err == nil {
			info.ObjectKey = key
		}
	}
	return info
}

// MarkFinished records completion for a job; called by the worker. The object
// key lives under a sibling key so the status value stays one of the three
// documented states.
func (s *ExportService) MarkFinished(ctx context.Context, jobID, objectKey string) error {
	if s.queue == nil {
		return nil
	}
	if objectKey != "" {
		if err := s.queue.Set(ctx, jobObjectKey(jobID), objectKey, s.jobStatusTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("job_id", jobID).Msg("object key set failed")
		}
	}
	return s.queue.Set(ctx, jobStatusKey(jobID), JobStatusFinished, s.jobStatusTTL).Err()
}

func jobStatusKey(jobID string) string { return jobStatusKeyPrefix + jobID }

func jobObjectKey(jobID string) string { return jobStatusKeyPrefix + jobID + ":object" }
