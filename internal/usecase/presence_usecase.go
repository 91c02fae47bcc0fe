package usecase

import (
	"context"
	"time"

	"perimeter/internal/presence"

	"github.com/google/uuid"
)

// IngestSampleInput represents one raw location sample reported by a
// participant's device
type IngestSampleInput struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}

// PresenceUsecase defines the interface for the presence tracking engine
type PresenceUsecase interface {
	// IngestSample grades a raw location sample against the event geofence,
	// applies it to the participant's tracked state, and raises any alerts
	// the resulting transition produces. Samples not newer than the last
	// applied one are discarded.
	IngestSample(ctx context.Context, eventID, participantID uuid.UUID, input *IngestSampleInput) (*presence.DisplayState, error)

	// GetDisplayState returns the current display state of a participant
	GetDisplayState(ctx context.Context, participantID uuid.UUID) (*presence.DisplayState, error)

	// GetEventDisplayStates returns the display state of every tracked
	// participant of an event
	GetEventDisplayStates(ctx context.Context, eventID uuid.UUID) ([]presence.DisplayState, error)

	// Reevaluate advances local estimates without new samples and raises
	// alerts for participants whose estimate crossed the allowed time. The
	// poller calls this once per tick.
	Reevaluate(ctx context.Context, now time.Time) error

	// Subscribe registers a watcher for one participant's state changes. The
	// returned channel receives the fresh display state at most once per
	// distinct change; the cancel function releases the subscription.
	Subscribe(ctx context.Context, participantID uuid.UUID) (<-chan presence.DisplayState, func())

	// SuspendParticipant freezes tracking for a participant marked absent
	SuspendParticipant(ctx context.Context, participantID uuid.UUID) error

	// ForgetParticipant drops all tracked state for a participant
	ForgetParticipant(ctx context.Context, participantID uuid.UUID) error
}
