package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
)

type VideoRepo struct {
	db *sqlx.DB
}

func NewVideoRepo(db *sqlx.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

const videoColumns = `id, filename, storage_path, title, tags, transcript, duration, status, created_at, processed_at`

func (r *VideoRepo) Create(ctx context.Context, v *models.Video) error {
	const q = `
		INSERT INTO videos (id, filename, storage_path, title, tags, transcript, duration, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		v.ID, v.Filename, v.StoragePath, v.Title, v.Tags, v.Transcript, v.Duration, v.Status, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("video create: %w", err)
	}
	return nil
}

func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	var v models.Video
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("video get by id: %w", err)
	}

	return &v, nil
}

func (r *VideoRepo) List(ctx context.Context, f repository.ListFilter) ([]*models.Video, error) {
	q := `SELECT ` + videoColumns + ` FROM videos`
	args := []any{}

	where := ""
	if f.Status != nil {
		args = append(args, *f.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		clause := fmt.Sprintf("tags ? $%d", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	q += where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	videos := []*models.Video{}
	if err := r.db.SelectContext(ctx, &videos, q, args...); err != nil {
		return nil, fmt.Errorf("video list: %w", err)
	}

	return videos, nil
}

func (r *VideoRepo) AllTags(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT jsonb_array_elements_text(tags) AS tag
		FROM videos
		ORDER BY tag
	`

	tags := []string{}
	if err := r.db.SelectContext(ctx, &tags, q); err != nil {
		return nil, fmt.Errorf("video all tags: %w", err)
	}

	return tags, nil
}

// ClaimForProcessing is the compare-and-swap guard against double processing:
// the status moves to processing only when the row is currently claimable.
func (r *VideoRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	const q = `
		UPDATE videos
		SET status = $2
		WHERE id = $1 AND status IN ($3, $4)
		RETURNING ` + videoColumns

	var v models.Video
	err := r.db.GetContext(ctx, &v, q, id, models.ProcessingStatus, models.PendingStatus, models.FailedStatus)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video claim: %w", err)
	}

	// No claimable row: distinguish missing from already claimed/terminal.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, models.ErrConflict
}

func (r *VideoRepo) UpdateResult(ctx context.Context, id uuid.UUID, res models.TaggingResult, transcript string, processedAt time.Time) (*models.Video, error) {
	const q = `
		UPDATE videos
		SET title = $2, tags = $3, transcript = $4, status = $5, processed_at = $6
		WHERE id = $1
		RETURNING ` + videoColumns

	var v models.Video
	err := r.db.GetContext(ctx, &v, q, id, res.Title, models.Tags(res.Tags), transcript, models.ReadyStatus, processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("video update result: %w", err)
	}

	return &v, nil
}

func (r *VideoRepo) MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time) (*models.Video, error) {
	const q = `
		UPDATE videos
		SET status = $2, processed_at = $3
		WHERE id = $1
		RETURNING ` + videoColumns

	var v models.Video
	if err := r.db.GetContext(ctx, &v, q, id, models.FailedStatus, processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("video mark failed: %w", err)
	}

	return &v, nil
}

func (r *VideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM videos WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("video delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}

	return nil
}
