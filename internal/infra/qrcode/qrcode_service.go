package qrcode

import (
	"encoding/json"
	"fmt"

	"perimeter/internal/domain/service"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// QRCodeData represents the QR code data structure
type QRCodeData struct {
	EventID       string `json:"event_id"`
	ParticipantID string `json:"participant_id"`
	Type          string `json:"type"`
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateCheckInQR generates a QR code a participant scans to check in to an event
func (s *qrcodeService) GenerateCheckInQR(eventID, participantID uuid.UUID) ([]byte, error) {
	// Create QR code data
	data := QRCodeData{
		EventID:       eventID.String(),
		ParticipantID: participantID.String(),
		Type:          "check_in",
	}

	// Convert to JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR code data: %w", err)
	}

	// Generate QR code
	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// Generate PNG image
	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseCheckInQR parses QR code data and returns the event and participant IDs
func (s *qrcodeService) ParseCheckInQR(qrData string) (uuid.UUID, uuid.UUID, error) {
	var data QRCodeData
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to unmarshal QR code data: %w", err)
	}

	// Validate type
	if data.Type != "check_in" {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid QR code type: %s", data.Type)
	}

	// Parse UUIDs
	eventID, err := uuid.Parse(data.EventID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to parse event ID: %w", err)
	}
	participantID, err := uuid.Parse(data.ParticipantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to parse participant ID: %w", err)
	}

	return eventID, participantID, nil
}
