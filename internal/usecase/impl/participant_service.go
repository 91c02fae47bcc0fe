package impl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
)

var (
	// ErrParticipantNotFound is returned when a participant is not found
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrParticipantUnauthorized is returned when a participant does not belong to the event
	ErrParticipantUnauthorized = errors.New("participant does not belong to this event")
)

type participantService struct {
	participantRepo repository.ParticipantRepository
	eventRepo       repository.EventRepository
	presence        usecase.PresenceUsecase
}

// NewParticipantService creates a new participant service instance
func NewParticipantService(
	participantRepo repository.ParticipantRepository,
	eventRepo repository.EventRepository,
	presence usecase.PresenceUsecase,
) usecase.ParticipantUsecase {
	return &participantService{
		participantRepo: participantRepo,
		eventRepo:       eventRepo,
		presence:        presence,
	}
}

// RegisterParticipant registers a participant for an event
func (s *participantService) RegisterParticipant(ctx context.Context, eventID uuid.UUID, input *usecase.RegisterParticipantInput) (*entity.Participant, error) {
	if _, err := s.eventRepo.FindEventByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}

		return nil, fmt.Errorf("failed to find event by ID: %w", err)
	}

	participant := &entity.Participant{
		ID:          uuid.New(),
		EventID:     eventID,
		DisplayName: input.DisplayName,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.participantRepo.CreateParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	return participant, nil
}

// GetParticipant retrieves a participant by ID
func (s *participantService) GetParticipant(ctx context.Context, participantID uuid.UUID) (*entity.Participant, error) {
	participant, err := s.participantRepo.FindParticipantByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}

		return nil, fmt.Errorf("failed to find participant by ID: %w", err)
	}

	return participant, nil
}

// GetEventParticipants retrieves all participants of an event
func (s *participantService) GetEventParticipants(ctx context.Context, eventID uuid.UUID) ([]*entity.Participant, error) {
	participants, err := s.participantRepo.FindParticipantsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to find participants by event: %w", err)
	}

	return participants, nil
}

// MarkAbsent flags a participant as absent, suspending presence tracking
func (s *participantService) MarkAbsent(ctx context.Context, eventID, participantID uuid.UUID) error {
	if _, err := s.eventParticipant(ctx, eventID, participantID); err != nil {
		return err
	}

	if err := s.participantRepo.SetMarkedAbsent(ctx, participantID, true); err != nil {
		return fmt.Errorf("failed to mark participant absent: %w", err)
	}

	if err := s.presence.SuspendParticipant(ctx, participantID); err != nil {
		return fmt.Errorf("failed to suspend presence tracking: %w", err)
	}

	return nil
}

// ClearAbsent removes the absent flag so tracking resumes on the next snapshot
func (s *participantService) ClearAbsent(ctx context.Context, eventID, participantID uuid.UUID) error {
	if _, err := s.eventParticipant(ctx, eventID, participantID); err != nil {
		return err
	}

	if err := s.participantRepo.SetMarkedAbsent(ctx, participantID, false); err != nil {
		return fmt.Errorf("failed to clear absent flag: %w", err)
	}

	return nil
}

// RemoveParticipant removes a participant from an event
func (s *participantService) RemoveParticipant(ctx context.Context, eventID, participantID uuid.UUID) error {
	if _, err := s.eventParticipant(ctx, eventID, participantID); err != nil {
		return err
	}

	if err := s.participantRepo.DeleteParticipant(ctx, participantID); err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}

	if err := s.presence.ForgetParticipant(ctx, participantID); err != nil {
		return fmt.Errorf("failed to drop presence tracking: %w", err)
	}

	return nil
}

// eventParticipant fetches a participant and verifies event membership
func (s *participantService) eventParticipant(ctx context.Context, eventID, participantID uuid.UUID) (*entity.Participant, error) {
	participant, err := s.participantRepo.FindParticipantByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}

		return nil, fmt.Errorf("failed to find participant by ID: %w", err)
	}

	if participant.EventID != eventID {
		return nil, ErrParticipantUnauthorized
	}

	return participant, nil
}
