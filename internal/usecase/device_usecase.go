package usecase

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// DeviceInfo represents device information for registration
type DeviceInfo struct {
	FCMToken string `json:"fcm_token"`
	DeviceID string `json:"device_id"`
	Platform string `json:"platform"`
}

// DeviceUsecase defines the interface for device management use cases
type DeviceUsecase interface {
	// RegisterDevice registers a new device or updates an existing one
	RegisterDevice(ctx context.Context, participantID uuid.UUID, deviceInfo *DeviceInfo) (*entity.ParticipantDevice, error)

	// UpdateFCMToken updates the FCM token for a specific device
	UpdateFCMToken(ctx context.Context, participantID uuid.UUID, deviceID uuid.UUID, fcmToken string) error

	// GetParticipantDevices retrieves all active devices for a participant
	GetParticipantDevices(ctx context.Context, participantID uuid.UUID) ([]*entity.ParticipantDevice, error)

	// DeactivateDevice deactivates a device (soft delete)
	DeactivateDevice(ctx context.Context, participantID, deviceID uuid.UUID) error
}
