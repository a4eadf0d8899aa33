package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"userhub/internal/service"
	"userhub/internal/storage"
)

// Processor executes queued jobs: user CSV exports and export retention
// cleanup.
type Processor struct {
	exports   *service.ExportService
	store     *storage.ObjectStore
	retention time.Duration
	logger    zerolog.Logger
}

type TaskPayload struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
}

func NewProcessor(exports *service.ExportService, store *storage.ObjectStore, retention time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		exports:   exports,
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "export":
		return p.handleExport(ctx, payload)
	case "cleanup":
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleExport(ctx context.Context, payload TaskPayload) error {
	data, err := p.exports.RenderCSV(ctx)
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}

	objectKey := ""
	if p.store != nil {
		objectKey = fmt.Sprintf("users-%s-%s.csv", time.Now().UTC().Format("20060102T150405"), payload.JobID)
		if err := p.store.PutExport(ctx, objectKey, data); err != nil {
			return fmt.Errorf("upload export: %w", err)
		}
	}

	if err := p.exports.MarkFinished(ctx, payload.JobID, objectKey); err != nil {
		p.logger.Warn().Err(err).Str("job_id", payload.JobID).Msg("mark finished failed")
	}

	p.logger.Info().
		Str("job_id", payload.JobID).
		Str("object_key", objectKey).
		Int("bytes", len(data)).
		Msg("export finished")
	return nil
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	deleted, err := p.store.DeleteOlderThan(ctx, time.Now().Add(-p.retention))
	if err != nil {
		return fmt.Errorf("cleanup exports: %w", err)
	}
	p.logger.Info().Int("deleted", deleted).Msg("export cleanup finished")
	return nil
}
