package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/voxlog/voxlog/internal/video/models"
)

// Runner executes one processing attempt for a video.
type Runner interface {
	Run(ctx context.Context, videoID uuid.UUID) error
}

// Fetcher is the queue side the worker consumes from.
type Fetcher interface {
	Fetch(ctx context.Context) (kafkago.Message, error)
	Commit(ctx context.Context, msg kafkago.Message) error
}

// Worker drains processing jobs one at a time. Jobs run sequentially because
// a single pipeline already saturates the host with ffmpeg plus two remote
// calls; ordering per video comes from partition keys.
type Worker struct {
	consumer Fetcher
	runner   Runner
	logger   zerolog.Logger
}

func New(consumer Fetcher, runner Runner, logger zerolog.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		runner:   runner,
		logger:   logger.With().Str("component", "worker").Logger(),
	}
}

// Start consumes until the context ends. A malformed message is committed and
// dropped; a pipeline error is logged and the message committed anyway, since
// the failed status is already recorded and a redelivery would only repeat
// the same failure.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Msg("worker started")

	for {
		msg, err := w.consumer.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info().Msg("worker stopped")
				return ctx.Err()
			}
			w.logger.Error().Err(err).Msg("fetch failed")
			continue
		}

		w.handle(ctx, msg)

		if err := w.consumer.Commit(ctx, msg); err != nil {
			w.logger.Error().Err(err).Msg("commit failed")
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg kafkago.Message) {
	var job models.ProcessingJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		w.logger.Error().Err(err).Str("key", string(msg.Key)).Msg("dropping malformed job")
		return
	}
	if job.VideoID == uuid.Nil {
		w.logger.Error().Str("key", string(msg.Key)).Msg("dropping job without video id")
		return
	}

	logger := w.logger.With().
		Str("video_id", job.VideoID.String()).
		Str("event_id", job.EventID.String()).
		Logger()
	logger.Info().Msg("job received")

	started := time.Now()
	if err := w.runner.Run(ctx, job.VideoID); err != nil {
		logger.Error().Err(err).Dur("took", time.Since(started)).Msg("job failed")
		return
	}
	logger.Info().Dur("took", time.Since(started)).Msg("job done")
}

// InlineQueue runs the pipeline in-process, used when no broker is
// configured. Enqueue returns immediately; the run happens on its own
// goroutine with a fresh context so it survives the request.
type InlineQueue struct {
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger
}

func NewInlineQueue(runner Runner, timeout time.Duration, logger zerolog.Logger) *InlineQueue {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &InlineQueue{
		runner:  runner,
		timeout: timeout,
		logger:  logger.With().Str("component", "inline_queue").Logger(),
	}
}

func (q *InlineQueue) Enqueue(_ context.Context, event models.DomainEvent) error {
	videoID := event.AggregateID()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()

		if err := q.runner.Run(ctx, videoID); err != nil {
			q.logger.Error().Err(err).Str("video_id", videoID.String()).Msg("inline run failed")
		}
	}()
	return nil
}
