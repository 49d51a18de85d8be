package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voxlog/voxlog/internal/backup/sheets"
	"github.com/voxlog/voxlog/internal/metrics"
	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/video/media"
	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
	"github.com/voxlog/voxlog/internal/video/speech"
	"github.com/voxlog/voxlog/internal/video/tagger"
)

// Pipeline orchestrates one processing attempt for a video record: download,
// audio extraction, transcription, tagging, terminal status write. Steps are
// strictly sequential; temporary files are removed on every exit path.
type Pipeline struct {
	store       repository.VideoRepository
	blobs       blob.Store
	extractor   media.Extractor
	transcriber speech.Transcriber
	tagger      tagger.Tagger
	backup      sheets.Sink
	clock       func() time.Time
	logger      zerolog.Logger
}

func New(store repository.VideoRepository, blobs blob.Store, extractor media.Extractor, transcriber speech.Transcriber, tg tagger.Tagger, backup sheets.Sink, logger zerolog.Logger) *Pipeline {
	if backup == nil {
		backup = sheets.Disabled{}
	}
	return &Pipeline{
		store:       store,
		blobs:       blobs,
		extractor:   extractor,
		transcriber: transcriber,
		tagger:      tg,
		backup:      backup,
		clock:       time.Now,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes a single attempt to a terminal status. Failures end in a
// failed status write plus a log entry; nothing is retried and no result
// fields from a failed attempt are persisted. The returned error is for the
// caller's observability only.
func (p *Pipeline) Run(ctx context.Context, videoID uuid.UUID) error {
	logger := p.logger.With().Str("video_id", videoID.String()).Logger()
	started := p.clock()

	v, err := p.store.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Stale trigger; there is no record to update.
			logger.Warn().Msg("video not found, skipping run")
			return nil
		}
		return fmt.Errorf("fetch video: %w", err)
	}

	// The trigger normally claims the record before enqueueing. Claim here
	// for direct invocations so concurrent readers observe the processing
	// status before any external call starts.
	if v.Status != models.ProcessingStatus {
		if _, err := p.store.ClaimForProcessing(ctx, videoID); err != nil {
			if errors.Is(err, models.ErrConflict) {
				logger.Warn().Str("status", string(v.Status)).Msg("video not claimable, skipping run")
				return nil
			}
			return fmt.Errorf("claim video: %w", err)
		}
	}

	res, transcript, err := p.process(ctx, logger, v)
	if err != nil {
		logger.Error().Err(err).Msg("processing failed")
		p.markFailed(ctx, logger, videoID)
		metrics.ProcessingRuns.WithLabelValues("failed").Inc()
		return err
	}

	updated, err := p.store.UpdateResult(ctx, videoID, res, transcript, p.clock())
	if err != nil {
		logger.Error().Err(err).Msg("final update failed")
		p.markFailed(ctx, logger, videoID)
		metrics.ProcessingRuns.WithLabelValues("failed").Inc()
		return fmt.Errorf("write result: %w", err)
	}

	metrics.ProcessingRuns.WithLabelValues("ready").Inc()
	metrics.ProcessingDuration.Observe(p.clock().Sub(started).Seconds())

	if err := p.backup.Append(ctx, updated); err != nil {
		logger.Warn().Err(err).Msg("backup append failed")
	}

	logger.Info().Str("title", updated.Title).Msg("video processed")
	return nil
}

// process runs the external-call sequence and owns both temporary files.
func (p *Pipeline) process(ctx context.Context, logger zerolog.Logger, v *models.Video) (models.TaggingResult, string, error) {
	videoPath, err := p.blobs.DownloadToTemp(ctx, v.StoragePath)
	if err != nil {
		return models.TaggingResult{}, "", fmt.Errorf("download media: %w", err)
	}
	defer removeIfPresent(logger, videoPath)

	audioPath, err := p.extractor.Extract(ctx, videoPath)
	if err != nil {
		return models.TaggingResult{}, "", fmt.Errorf("extract audio: %w", err)
	}
	defer removeIfPresent(logger, audioPath)

	transcript, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return models.TaggingResult{}, "", fmt.Errorf("transcribe: %w", err)
	}

	return p.tagger.Tag(ctx, transcript), transcript, nil
}

func (p *Pipeline) markFailed(ctx context.Context, logger zerolog.Logger, videoID uuid.UUID) {
	if _, err := p.store.MarkFailed(ctx, videoID, p.clock()); err != nil {
		logger.Error().Err(err).Msg("failed to record failure status")
	}
}

// removeIfPresent removes a temporary file. A file that is already gone
// counts as removed.
func removeIfPresent(logger zerolog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("temp file cleanup failed")
	}
}
