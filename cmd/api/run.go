package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/voxlog/voxlog/internal/auth"
	"github.com/voxlog/voxlog/internal/backup/sheets"
	"github.com/voxlog/voxlog/internal/config"
	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/storage/postgres"
	"github.com/voxlog/voxlog/internal/video/httpapi"
	"github.com/voxlog/voxlog/internal/video/kafka"
	"github.com/voxlog/voxlog/internal/video/media"
	"github.com/voxlog/voxlog/internal/video/outbox"
	"github.com/voxlog/voxlog/internal/video/pipeline"
	"github.com/voxlog/voxlog/internal/video/repository"
	"github.com/voxlog/voxlog/internal/video/service"
	"github.com/voxlog/voxlog/internal/video/speech"
	"github.com/voxlog/voxlog/internal/video/tagger"
	"github.com/voxlog/voxlog/internal/video/worker"
)

func run(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is empty")
	}

	signingSecret := cfg.SigningSecret
	if signingSecret == "" {
		signingSecret = cfg.JWTSecret
	}

	store, err := blob.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, signingSecret)
	if err != nil {
		return err
	}

	var repo repository.VideoRepository
	var outboxRepo *postgres.OutboxRepo

	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		repo = postgres.NewVideoRepo(db)
		outboxRepo = postgres.NewOutboxRepo(db)
	} else {
		logger.Warn().Msg("DATABASE_URL is empty, records are kept in memory")
		repo = repository.NewMemoryRepository()
	}

	var queue service.Queue

	if len(cfg.KafkaBrokers) > 0 && outboxRepo != nil {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		defer producer.Close()

		publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
			Source:    outboxRepo,
			Producer:  producer,
			Interval:  time.Second,
			BatchSize: 100,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		go func() { _ = publisher.Start(ctx) }()

		queue = outbox.NewQueue(outboxRepo)
	} else {
		// Without a broker the API hosts the pipeline itself; uploads are
		// processed on a goroutine per trigger.
		logger.Warn().Msg("KAFKA_BROKERS is empty, processing runs in-process")

		runner, err := buildPipeline(ctx, cfg, repo, store, logger)
		if err != nil {
			return err
		}
		queue = worker.NewInlineQueue(runner, cfg.SpeechTimeout+20*time.Minute, logger)
	}

	svc := service.New(repo, store, queue, cfg.SignedURLTTL, logger)
	authn := auth.New(cfg.AppPassword, cfg.JWTSecret)
	handler := httpapi.New(svc, authn, store, logger)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           httpapi.NewRouter(handler, authn, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.APIAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config, repo repository.VideoRepository, store *blob.DiskStore, logger zerolog.Logger) (*pipeline.Pipeline, error) {
	extractor := media.NewFFmpeg("", logger)

	transcriber, err := speech.NewGoogle(ctx, speech.GoogleConfig{
		Model:   cfg.SpeechModel,
		Timeout: cfg.SpeechTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	tg := tagger.NewOpenAI(openai.NewClient(cfg.OpenAIKey), cfg.OpenAIModel, logger)

	var sink sheets.Sink = sheets.Disabled{}
	if cfg.SheetID != "" {
		gs, err := sheets.NewGoogleSheets(ctx, cfg.SheetID, logger)
		if err != nil {
			return nil, fmt.Errorf("sheets client: %w", err)
		}
		sink = gs
	}

	return pipeline.New(repo, store, extractor, transcriber, tg, sink, logger), nil
}
