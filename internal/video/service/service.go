package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
)

// Queue hands a processing request to whatever executes it: the outbox relay
// in production, an in-process runner in development.
type Queue interface {
	Enqueue(ctx context.Context, event models.DomainEvent) error
}

type Service struct {
	repo   repository.VideoRepository
	blobs  blob.Store
	queue  Queue
	urlTTL time.Duration
	clock  func() time.Time
	idGen  func() uuid.UUID
	logger zerolog.Logger
}

func New(repo repository.VideoRepository, blobs blob.Store, queue Queue, urlTTL time.Duration, logger zerolog.Logger) *Service {
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &Service{
		repo:   repo,
		blobs:  blobs,
		queue:  queue,
		urlTTL: urlTTL,
		clock:  time.Now,
		idGen:  uuid.New,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// CreateVideo registers an uploaded file as a pending journal entry.
// Service owns invariants: id, initial status, creation timestamp.
func (s *Service) CreateVideo(ctx context.Context, filename, storagePath string) (*models.Video, error) {
	if filename == "" || storagePath == "" {
		return nil, models.ErrInvalidArgument
	}

	v := &models.Video{
		ID:          s.idGen(),
		Filename:    filename,
		StoragePath: storagePath,
		Status:      models.PendingStatus,
		Tags:        models.Tags{},
		CreatedAt:   s.clock(),
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.attachURL(v)
	return v, nil
}

// GetVideo returns a video by id and passes through domain errors
// (e.g. models.ErrNotFound) so the transport layer can map them to HTTP.
func (s *Service) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.attachURL(v)
	return v, nil
}

// defaultListLimit bounds unpaged listings.
const defaultListLimit = 50

func (s *Service) ListVideos(ctx context.Context, f repository.ListFilter) ([]*models.Video, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, models.ErrInvalidArgument
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}

	videos, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	for _, v := range videos {
		s.attachURL(v)
	}
	return videos, nil
}

func (s *Service) AllTags(ctx context.Context) ([]string, error) {
	return s.repo.AllTags(ctx)
}

// DeleteVideo removes the record first, then the stored media. A blob that is
// already gone does not fail the delete.
func (s *Service) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, v.StoragePath); err != nil {
			s.logger.Warn().Err(err).Str("video_id", id.String()).Msg("blob delete failed")
		}
	}
	return nil
}

// RequestProcessing claims the record for processing and enqueues the job.
// Only pending and failed records are claimable; a record that is already
// processing or ready yields models.ErrConflict so double triggers cannot
// start a second run.
func (s *Service) RequestProcessing(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}

	v, err := s.repo.ClaimForProcessing(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, models.NewProcessingRequested(id)); err != nil {
		// The claim is already visible; release it as failed so a retry
		// trigger can claim again.
		if _, markErr := s.repo.MarkFailed(ctx, id, s.clock()); markErr != nil && !errors.Is(markErr, models.ErrNotFound) {
			s.logger.Error().Err(markErr).Str("video_id", id.String()).Msg("failed to release claim after enqueue error")
		}
		return nil, fmt.Errorf("enqueue processing: %w", err)
	}

	s.attachURL(v)
	return v, nil
}

// attachURL fills the transient playback link. Records stay servable even
// when signing is unavailable.
func (s *Service) attachURL(v *models.Video) {
	if s.blobs == nil || v == nil {
		return
	}
	u, err := s.blobs.SignedURL(v.StoragePath, s.urlTTL)
	if err != nil {
		s.logger.Debug().Err(err).Str("video_id", v.ID.String()).Msg("signed url unavailable")
		return
	}
	v.StorageURL = u
}
