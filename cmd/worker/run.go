package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/voxlog/voxlog/internal/backup/sheets"
	"github.com/voxlog/voxlog/internal/config"
	"github.com/voxlog/voxlog/internal/metrics"
	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/storage/postgres"
	"github.com/voxlog/voxlog/internal/video/kafka"
	"github.com/voxlog/voxlog/internal/video/media"
	"github.com/voxlog/voxlog/internal/video/pipeline"
	"github.com/voxlog/voxlog/internal/video/repository"
	"github.com/voxlog/voxlog/internal/video/speech"
	"github.com/voxlog/voxlog/internal/video/tagger"
	"github.com/voxlog/voxlog/internal/video/worker"
)

func run(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is empty")
	}

	signingSecret := cfg.SigningSecret
	if signingSecret == "" {
		signingSecret = cfg.JWTSecret
	}
	if signingSecret == "" {
		return fmt.Errorf("SIGNING_SECRET is empty")
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	repo := postgres.NewVideoRepo(db)

	store, err := blob.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, signingSecret)
	if err != nil {
		return err
	}

	runner, err := buildPipeline(ctx, cfg, repo, store, logger)
	if err != nil {
		return err
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroup,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer consumer.Close()

	// Health and metrics only; the worker has no API surface.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.WorkerAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("health server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	w := worker.New(consumer, runner, logger)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
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
