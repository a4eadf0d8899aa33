package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/internal/models"
)

func TestExportService_RenderCSV(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deletedAt := created.Add(time.Hour)
	store := newMemStore(
		models.User{ID: 2, Name: "Bob", Email: "bob@example.com", Role: models.UserRoleUser, IsActive: true, CreatedAt: created},
		models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: models.UserRoleAdmin, IsActive: true, CreatedAt: created},
		models.User{ID: 3, Name: "Gone", Email: "gone@example.com", Role: models.UserRoleUser, CreatedAt: created, DeletedAt: &deletedAt},
	)
	svc := NewExportService(store, nil, "", 0, zerolog.Nop())

	data, err := svc.RenderCSV(context.Background())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "name", "email", "role", "created_at", "is_active"}, records[0])
	assert.Equal(t, []string{"1", "Alice", "alice@example.com", "admin", "2026-03-01T12:00:00Z", "true"}, records[1])
	assert.Equal(t, []string{"2", "Bob", "bob@example.com", "user", "2026-03-01T12:00:00Z", "true"}, records[2])
}

func TestExportService_WithoutQueue(t *testing.T) {
	t.Parallel()

	svc := NewExportService(newMemStore(), nil, "", 0, zerolog.Nop())
	ctx := context.Background()

	jobID, err := svc.Enqueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobID)

	assert.Equal(t, JobInfo{Status: JobStatusUnknown}, svc.JobStatus(ctx, "any"))
	assert.NoError(t, svc.MarkFinished(ctx, "any", "object.csv"))
}
