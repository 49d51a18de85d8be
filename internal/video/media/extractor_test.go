package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestFFmpeg_ExtractCreatesTempFile(t *testing.T) {
	// "true" stands in for a converter that exits cleanly.
	requireBinary(t, "true")
	ex := NewFFmpeg("true", zerolog.Nop())

	audioPath, err := ex.Extract(context.Background(), "/tmp/does-not-matter.mp4")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(audioPath) })

	_, err = os.Stat(audioPath)
	require.NoError(t, err, "extractor must hand ownership of an existing file to the caller")
	assert.Contains(t, audioPath, "voxlog-audio-")
	assert.Contains(t, audioPath, ".wav")
}

func TestFFmpeg_ExtractFailureCarriesDiagnostics(t *testing.T) {
	requireBinary(t, "false")
	ex := NewFFmpeg("false", zerolog.Nop())

	audioPath, err := ex.Extract(context.Background(), "/tmp/input.mp4")
	require.Error(t, err)
	assert.Empty(t, audioPath)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Contains(t, extractionErr.Error(), "audio extraction failed")
}

func TestFFmpeg_MissingBinary(t *testing.T) {
	ex := NewFFmpeg("definitely-not-a-real-binary-4f3a", zerolog.Nop())

	_, err := ex.Extract(context.Background(), "/tmp/input.mp4")
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
}
