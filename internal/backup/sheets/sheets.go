package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/voxlog/voxlog/internal/video/models"
)

// transcriptLimit keeps a single cell under the spreadsheet value cap.
const transcriptLimit = 50000

// Sink is the append-only backup of processed records. Callers treat Append
// as best-effort: an error is logged, never escalated.
type Sink interface {
	Append(ctx context.Context, v *models.Video) error
}

// Disabled is the sink used when no spreadsheet is configured.
type Disabled struct{}

func (Disabled) Append(context.Context, *models.Video) error { return nil }

// GoogleSheets appends one row per processed video to the first sheet of the
// configured spreadsheet.
type GoogleSheets struct {
	svc           *sheetsv4.Service
	spreadsheetID string
	logger        zerolog.Logger
}

func NewGoogleSheets(ctx context.Context, spreadsheetID string, logger zerolog.Logger, opts ...option.ClientOption) (*GoogleSheets, error) {
	svc, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &GoogleSheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.With().Str("component", "sheets_backup").Logger(),
	}, nil
}

func (s *GoogleSheets) Append(ctx context.Context, v *models.Video) error {
	transcript := v.Transcript
	if len(transcript) > transcriptLimit {
		transcript = transcript[:transcriptLimit]
	}

	processedAt := ""
	if v.ProcessedAt != nil {
		processedAt = v.ProcessedAt.Format(time.RFC3339)
	}

	row := []any{
		v.ID.String(),
		v.Title,
		strings.Join(v.Tags, ", "),
		transcript,
		v.CreatedAt.Format(time.RFC3339),
		processedAt,
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, "A1", &sheetsv4.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}

	s.logger.Debug().Str("video_id", v.ID.String()).Msg("backed up record")
	return nil
}
