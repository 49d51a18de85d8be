package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Extractor produces a local audio file from a local video file. The caller
// owns the returned file and is responsible for removing it.
type Extractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// ExtractionError carries the tool's diagnostic output alongside the exit
// error.
type ExtractionError struct {
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("audio extraction failed: %v (output=%s)", e.Err, strings.TrimSpace(e.Output))
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FFmpeg shells out to ffmpeg and converts to the profile the recognition
// service is optimized for: 16 kHz, mono, 16-bit PCM.
type FFmpeg struct {
	bin    string
	logger zerolog.Logger
}

func NewFFmpeg(bin string, logger zerolog.Logger) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{
		bin:    bin,
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

func (f *FFmpeg) Extract(ctx context.Context, videoPath string) (string, error) {
	out, err := os.CreateTemp("", "voxlog-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("create audio temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("close audio temp file: %w", err)
	}

	args := []string{
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		out.Name(),
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	f.logger.Debug().Str("video", videoPath).Str("audio", out.Name()).Msg("extracting audio")
	if err := cmd.Run(); err != nil {
		os.Remove(out.Name())
		return "", &ExtractionError{Output: buf.String(), Err: err}
	}

	return out.Name(), nil
}
