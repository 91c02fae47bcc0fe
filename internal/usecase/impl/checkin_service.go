package impl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/domain/service"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
)

// ErrAlreadyCheckedIn is returned when a participant scans the QR twice
var ErrAlreadyCheckedIn = errors.New("participant already checked in")

type checkInService struct {
	participantRepo repository.ParticipantRepository
	qrcodeSvc       service.QRCodeService
}

// NewCheckInService creates a new check-in service instance
func NewCheckInService(participantRepo repository.ParticipantRepository, qrcodeSvc service.QRCodeService) usecase.CheckInUsecase {
	return &checkInService{
		participantRepo: participantRepo,
		qrcodeSvc:       qrcodeSvc,
	}
}

// GenerateCheckInQR generates the QR code a participant presents at the venue
func (s *checkInService) GenerateCheckInQR(ctx context.Context, eventID, participantID uuid.UUID) ([]byte, error) {
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

	qr, err := s.qrcodeSvc.GenerateCheckInQR(eventID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate check-in QR: %w", err)
	}

	return qr, nil
}

// CheckIn records a participant's arrival from scanned QR data
func (s *checkInService) CheckIn(ctx context.Context, qrData string) (*entity.Participant, error) {
	eventID, participantID, err := s.qrcodeSvc.ParseCheckInQR(qrData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse check-in QR: %w", err)
	}

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
	if participant.CheckedInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}

	checkedInAt := time.Now()
	if err := s.participantRepo.SetCheckedIn(ctx, participantID, checkedInAt); err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	participant.CheckedInAt = &checkedInAt
	participant.UpdatedAt = checkedInAt

	return participant, nil
}
