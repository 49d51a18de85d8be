package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxlog/voxlog/internal/video/domain"
	"github.com/voxlog/voxlog/internal/video/models"
)

// MemoryRepository keeps records in a map. It backs tests and the single
// process dev mode where no DATABASE_URL is configured.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*models.Video
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.Video),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, v *models.Video) error {
	if v == nil || v.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[v.ID]; exists {
		return models.ErrConflict
	}

	// Defensive copy so callers cannot mutate the stored record.
	cp := *v
	r.data[v.ID] = &cp

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Video, 0, len(r.data))
	for _, v := range r.data {
		if f.Status != nil && v.Status != *f.Status {
			continue
		}
		if f.Tag != "" && !hasTag(v.Tags, f.Tag) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}

	return out, nil
}

func (r *MemoryRepository) AllTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, v := range r.data {
		for _, tag := range v.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags, nil
}

func (r *MemoryRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !domain.CanTransition(domain.Status(v.Status), domain.Processing) {
		return nil, models.ErrConflict
	}
	v.Status = models.ProcessingStatus

	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) UpdateResult(ctx context.Context, id uuid.UUID, res models.TaggingResult, transcript string, processedAt time.Time) (*models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := domain.ValidateTransition(domain.Status(v.Status), domain.Ready); err != nil {
		return nil, models.ErrConflict
	}
	v.Title = res.Title
	v.Tags = append(models.Tags{}, res.Tags...)
	v.Transcript = transcript
	v.Status = models.ReadyStatus
	v.ProcessedAt = &processedAt

	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time) (*models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := domain.ValidateTransition(domain.Status(v.Status), domain.Failed); err != nil {
		return nil, models.ErrConflict
	}
	v.Status = models.FailedStatus
	v.ProcessedAt = &processedAt

	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.data, id)

	return nil
}

func hasTag(tags models.Tags, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
