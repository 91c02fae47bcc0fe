package entity

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantDevice represents a participant's device registered for push
// notifications.
type ParticipantDevice struct {
	ID            uuid.UUID `json:"id"`             // The Global Unique Identifier (GUID) for the device.
	ParticipantID uuid.UUID `json:"participant_id"` // The ID of the participant who owns this device.
	FCMToken      string    `json:"fcm_token"`      // Firebase Cloud Messaging token for push notifications.
	DeviceID      string    `json:"device_id"`      // Unique device identifier from the client.
	Platform      string    `json:"platform"`       // Device platform (ios, android).
	IsActive      bool      `json:"is_active"`      // Indicates if this device is active for notifications.
	CreatedAt     time.Time `json:"created_at"`     // Timestamp of when this device was registered.
	UpdatedAt     time.Time `json:"updated_at"`     // Timestamp of the last modification.
}

// AlertDeliveryLog represents a log entry for a single alert push sent to a
// participant device.
type AlertDeliveryLog struct {
	ID           uuid.UUID `json:"id"`             // The Global Unique Identifier (GUID) for the log entry.
	AlertID      uuid.UUID `json:"alert_id"`       // The ID of the alert this log belongs to.
	DeviceID     uuid.UUID `json:"device_id"`      // The ID of the device that received the push.
	Status       string    `json:"status"`         // The delivery status (sent, failed).
	FCMMessageID string    `json:"fcm_message_id"` // The Firebase Cloud Messaging message ID.
	ErrorMessage string    `json:"error_message"`  // Error message if the delivery failed.
	SentAt       time.Time `json:"sent_at"`        // Timestamp of when the push was sent.
}
