package usecase

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// CheckInUsecase defines the interface for participant check-in use cases
type CheckInUsecase interface {
	// GenerateCheckInQR generates the QR code a participant presents at the venue
	GenerateCheckInQR(ctx context.Context, eventID, participantID uuid.UUID) ([]byte, error)

	// CheckIn records a participant's arrival from scanned QR data
	CheckIn(ctx context.Context, qrData string) (*entity.Participant, error)
}
