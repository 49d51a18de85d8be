package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// ProcessingRequested is written to the outbox when a caller triggers
// processing for a video. The worker consumes it from the queue and runs the
// pipeline for the aggregate.
type ProcessingRequested struct {
	eventID    uuid.UUID
	videoID    uuid.UUID
	occurredAt time.Time
}

func NewProcessingRequested(videoID uuid.UUID) *ProcessingRequested {
	return &ProcessingRequested{
		eventID:    uuid.New(),
		videoID:    videoID,
		occurredAt: time.Now(),
	}
}

func (e *ProcessingRequested) EventID() uuid.UUID     { return e.eventID }
func (e *ProcessingRequested) EventType() string      { return "ProcessingRequested" }
func (e *ProcessingRequested) AggregateID() uuid.UUID { return e.videoID }
func (e *ProcessingRequested) OccurredAt() time.Time  { return e.occurredAt }

func (e *ProcessingRequested) MarshalJSON() ([]byte, error) {
	return json.Marshal(ProcessingJob{
		EventID:    e.eventID,
		VideoID:    e.videoID,
		OccurredAt: e.occurredAt,
	})
}

// ProcessingJob is the wire form of ProcessingRequested as it travels through
// the outbox and the queue.
type ProcessingJob struct {
	EventID    uuid.UUID `json:"event_id"`
	VideoID    uuid.UUID `json:"video_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
