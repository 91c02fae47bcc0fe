package repository

import (
	"context"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for participant persistence.
var (
	// ErrParticipantNotFound is returned when a participant is not found.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrDuplicateParticipant is returned when a participant is already registered for the event.
	ErrDuplicateParticipant = errors.New("participant already registered")
)

// ParticipantRepository defines the interface for participant-related database operations.
type ParticipantRepository interface {
	// CreateParticipant registers a participant for an event.
	CreateParticipant(ctx context.Context, participant *entity.Participant) error

	// FindParticipantByID retrieves a participant by its unique ID.
	FindParticipantByID(ctx context.Context, id uuid.UUID) (*entity.Participant, error)

	// FindParticipantsByEvent retrieves all participants of an event.
	FindParticipantsByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.Participant, error)

	// SetCheckedIn records the check-in time of a participant.
	SetCheckedIn(ctx context.Context, id uuid.UUID, checkedInAt time.Time) error

	// SetMarkedAbsent flips the absent flag of a participant.
	SetMarkedAbsent(ctx context.Context, id uuid.UUID, markedAbsent bool) error

	// DeleteParticipant removes a participant by its ID (soft delete).
	DeleteParticipant(ctx context.Context, id uuid.UUID) error
}
