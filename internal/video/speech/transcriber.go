package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"
)

// ErrTimeout is returned when the remote recognition operation does not
// finish within the configured ceiling.
var ErrTimeout = errors.New("transcription timed out")

// Transcriber turns a local audio file into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type GoogleConfig struct {
	// Model selects the recognition model, e.g. latest_long or chirp.
	Model string
	// Timeout bounds the long-running operation. Defaults to 10 minutes.
	Timeout time.Duration
	// PollInterval is how often the operation status is checked.
	PollInterval time.Duration
}

// Google submits audio to the Cloud Speech-to-Text long-running API and polls
// the operation until it completes or the timeout elapses.
type Google struct {
	svc    *speechv1.Service
	cfg    GoogleConfig
	logger zerolog.Logger
}

func NewGoogle(ctx context.Context, cfg GoogleConfig, logger zerolog.Logger, opts ...option.ClientOption) (*Google, error) {
	svc, err := speechv1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech service: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = "latest_long"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	return &Google{
		svc:    svc,
		cfg:    cfg,
		logger: logger.With().Str("component", "transcriber").Logger(),
	}, nil
}

func (g *Google) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	req := &speechv1.LongRunningRecognizeRequest{
		Audio: &speechv1.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
		Config: &speechv1.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            16000,
			LanguageCode:               "en-US",
			Model:                      g.cfg.Model,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      false,
		},
	}

	op, err := g.svc.Speech.Longrunningrecognize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("start recognize operation: %w", err)
	}

	g.logger.Debug().Str("operation", op.Name).Int("bytes", len(data)).Msg("recognition started")

	deadline := time.Now().Add(g.cfg.Timeout)
	for !op.Done {
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.cfg.PollInterval):
		}

		op, err = g.svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("poll recognize operation: %w", err)
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("recognize operation: %s (code %d)", op.Error.Message, op.Error.Code)
	}
	if op.Response == nil {
		return "", nil
	}

	var resp speechv1.LongRunningRecognizeResponse
	if err := json.Unmarshal(op.Response, &resp); err != nil {
		return "", fmt.Errorf("decode recognize response: %w", err)
	}

	return joinResults(resp.Results), nil
}

// joinResults concatenates the top alternative of each result segment,
// separated by a single space. No results means an empty transcript, which is
// valid input downstream.
func joinResults(results []*speechv1.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 {
			continue
		}
		if t := r.Alternatives[0].Transcript; t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
