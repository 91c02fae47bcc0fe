package usecase

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterParticipantInput represents the input for registering a participant
type RegisterParticipantInput struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// ParticipantUsecase defines the interface for participant management use cases
type ParticipantUsecase interface {
	// RegisterParticipant registers a participant for an event
	RegisterParticipant(ctx context.Context, eventID uuid.UUID, input *RegisterParticipantInput) (*entity.Participant, error)

	// GetParticipant retrieves a participant by ID
	GetParticipant(ctx context.Context, participantID uuid.UUID) (*entity.Participant, error)

	// GetEventParticipants retrieves all participants of an event
	GetEventParticipants(ctx context.Context, eventID uuid.UUID) ([]*entity.Participant, error)

	// MarkAbsent flags a participant as absent, suspending presence tracking
	MarkAbsent(ctx context.Context, eventID, participantID uuid.UUID) error

	// ClearAbsent removes the absent flag so tracking resumes on the next snapshot
	ClearAbsent(ctx context.Context, eventID, participantID uuid.UUID) error

	// RemoveParticipant removes a participant from an event
	RemoveParticipant(ctx context.Context, eventID, participantID uuid.UUID) error
}
