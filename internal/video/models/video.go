package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	PendingStatus    Status = "pending"
	ProcessingStatus Status = "processing"
	ReadyStatus      Status = "ready"
	FailedStatus     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case PendingStatus, ProcessingStatus, ReadyStatus, FailedStatus:
		return true
	}
	return false
}

// ParseStatus maps user input to a Status, wrapping ErrInvalidArgument on
// anything unknown.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, raw)
	}
	return s, nil
}

// Tags is stored as a jsonb column so the set can be filtered with jsonb
// operators without a join table.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	return json.Marshal(t)
}

func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("tags scan: unsupported type %T", src)
	}
}

// Video is the unit of work. ID and StoragePath never change after creation;
// Title, Tags and Transcript are only meaningful once Status is ready.
type Video struct {
	ID          uuid.UUID  `db:"id"`
	Filename    string     `db:"filename"`
	StoragePath string     `db:"storage_path"`
	Title       string     `db:"title"`
	Tags        Tags       `db:"tags"`
	Transcript  string     `db:"transcript"`
	Duration    float64    `db:"duration"`
	Status      Status     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`

	// StorageURL is a short-lived signed playback link, attached best-effort
	// on the way out. Never persisted.
	StorageURL string `db:"-"`
}

// TaggingResult is the ephemeral outcome of a tagging call. It is always
// folded into a Video update, never stored on its own.
type TaggingResult struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}
