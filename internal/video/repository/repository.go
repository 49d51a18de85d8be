package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voxlog/voxlog/internal/video/models"
)

// ListFilter narrows List results. A nil Status or empty Tag means "any".
type ListFilter struct {
	Status *models.Status
	Tag    string
	Limit  int
}

// VideoRepository is the persistent store of video records. Updates touch only
// the columns they name; unset fields are never cleared.
type VideoRepository interface {
	Create(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	List(ctx context.Context, f ListFilter) ([]*models.Video, error)
	AllTags(ctx context.Context) ([]string, error)

	// ClaimForProcessing atomically moves a pending or failed record to
	// processing. Returns models.ErrConflict when the record is already
	// processing or ready, so a second concurrent trigger cannot re-enter.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// UpdateResult writes the successful outcome in one update: title, tags,
	// transcript, status ready and the processed timestamp.
	UpdateResult(ctx context.Context, id uuid.UUID, res models.TaggingResult, transcript string, processedAt time.Time) (*models.Video, error)

	// MarkFailed writes the terminal failure status without touching any
	// result fields.
	MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time) (*models.Video, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
