package repository

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for device persistence.
var (
	// ErrDeviceNotFound is returned when a device is not found.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDuplicateDevice is returned when trying to create a device that already exists.
	ErrDuplicateDevice = errors.New("device already exists")
)

// DeviceRepository defines the interface for device-related database operations.
type DeviceRepository interface {
	// CreateDevice persists a new device for a participant.
	CreateDevice(ctx context.Context, device *entity.ParticipantDevice) error

	// FindDeviceByID retrieves a device by its unique ID.
	FindDeviceByID(ctx context.Context, id uuid.UUID) (*entity.ParticipantDevice, error)

	// FindDevicesByParticipant retrieves all devices for a participant (including inactive).
	FindDevicesByParticipant(ctx context.Context, participantID uuid.UUID) ([]*entity.ParticipantDevice, error)

	// FindActiveDevicesByParticipant retrieves all active devices for a participant.
	FindActiveDevicesByParticipant(ctx context.Context, participantID uuid.UUID) ([]*entity.ParticipantDevice, error)

	// FindActiveDevicesByEvent retrieves the active devices of every participant of an event.
	FindActiveDevicesByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.ParticipantDevice, error)

	// UpdateFCMToken updates the FCM token for a specific device.
	UpdateFCMToken(ctx context.Context, deviceID uuid.UUID, fcmToken string) error

	// DeactivateByTokens marks the devices holding the given FCM tokens inactive.
	DeactivateByTokens(ctx context.Context, fcmTokens []string) error

	// DeleteDevice removes a device by its ID (soft delete).
	DeleteDevice(ctx context.Context, id uuid.UUID) error

	// CreateDeliveryLog records the outcome of one push delivery attempt.
	CreateDeliveryLog(ctx context.Context, log *entity.AlertDeliveryLog) error
}
