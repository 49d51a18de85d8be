package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlog/voxlog/internal/video/models"
)

func newVideo(status models.Status, tags ...string) *models.Video {
	return &models.Video{
		ID:          uuid.New(),
		Filename:    "entry.mp4",
		StoragePath: "videos/entry.mp4",
		Status:      status,
		Tags:        tags,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	v := newVideo(models.PendingStatus)
	require.NoError(t, repo.Create(ctx, v))

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, models.PendingStatus, got.Status)

	// Duplicate IDs are rejected.
	require.ErrorIs(t, repo.Create(ctx, v), models.ErrConflict)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepository_ClaimForProcessing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	pending := newVideo(models.PendingStatus)
	failed := newVideo(models.FailedStatus)
	ready := newVideo(models.ReadyStatus)
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.Create(ctx, ready))

	got, err := repo.ClaimForProcessing(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatus, got.Status)

	// Second claim while processing must be refused.
	_, err = repo.ClaimForProcessing(ctx, pending.ID)
	require.ErrorIs(t, err, models.ErrConflict)

	// A failed record may be claimed for another attempt.
	got, err = repo.ClaimForProcessing(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatus, got.Status)

	// Ready is terminal.
	_, err = repo.ClaimForProcessing(ctx, ready.ID)
	require.ErrorIs(t, err, models.ErrConflict)

	_, err = repo.ClaimForProcessing(ctx, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepository_UpdateResult(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	v := newVideo(models.ProcessingStatus)
	require.NoError(t, repo.Create(ctx, v))

	processedAt := time.Now()
	res := models.TaggingResult{Title: "Calm Morning", Tags: []string{"calm", "reflective"}}
	got, err := repo.UpdateResult(ctx, v.ID, res, "hello world", processedAt)
	require.NoError(t, err)

	assert.Equal(t, models.ReadyStatus, got.Status)
	assert.Equal(t, "Calm Morning", got.Title)
	assert.Equal(t, models.Tags{"calm", "reflective"}, got.Tags)
	assert.Equal(t, "hello world", got.Transcript)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, processedAt, *got.ProcessedAt)
}

func TestMemoryRepository_MarkFailed(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	v := newVideo(models.ProcessingStatus)
	require.NoError(t, repo.Create(ctx, v))

	got, err := repo.MarkFailed(ctx, v.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.FailedStatus, got.Status)
	require.NotNil(t, got.ProcessedAt)

	// Result fields stay untouched on failure.
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Transcript)
}

func TestMemoryRepository_ListAndTags(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a := newVideo(models.ReadyStatus, "calm", "gratitude")
	a.CreatedAt = time.Now().Add(-2 * time.Hour)
	b := newVideo(models.ReadyStatus, "stressed")
	b.CreatedAt = time.Now().Add(-1 * time.Hour)
	c := newVideo(models.PendingStatus)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, c))

	ready := models.ReadyStatus
	got, err := repo.List(ctx, ListFilter{Status: &ready})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	got, err = repo.List(ctx, ListFilter{Tag: "calm"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = repo.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	tags, err := repo.AllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"calm", "gratitude", "stressed"}, tags)
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	v := newVideo(models.PendingStatus)
	require.NoError(t, repo.Create(ctx, v))
	require.NoError(t, repo.Delete(ctx, v.ID))
	require.ErrorIs(t, repo.Delete(ctx, v.ID), models.ErrNotFound)
}
