package service

import (
	"github.com/google/uuid"
)

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GenerateCheckInQR generates a QR code a participant scans to check in to an event
	GenerateCheckInQR(eventID, participantID uuid.UUID) ([]byte, error)

	// ParseCheckInQR parses QR code data and returns the event and participant IDs
	ParseCheckInQR(qrData string) (eventID, participantID uuid.UUID, err error)
}
