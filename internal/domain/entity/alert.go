package entity

import (
	"time"

	"github.com/google/uuid"
)

// AlertType classifies the presence transition an alert reports.
type AlertType string

const (
	AlertTypeWarning       AlertType = "warning"
	AlertTypeExceededLimit AlertType = "exceeded_limit"
	AlertTypeReturned      AlertType = "returned"
)

// Alert represents one qualifying presence transition. Created exactly once
// per transition; acknowledgment is a one-way flag mirrored to the backend.
type Alert struct {
	ID             uuid.UUID  `json:"id"`                        // The Global Unique Identifier (GUID) for the alert.
	ParticipantID  uuid.UUID  `json:"participant_id"`            // The participant whose transition raised the alert.
	EventID        uuid.UUID  `json:"event_id"`                  // The event the participant belongs to.
	Type           AlertType  `json:"type"`                      // The transition class (warning, exceeded_limit, returned).
	Message        string     `json:"message"`                   // Human-readable alert text for display surfaces.
	RaisedAt       time.Time  `json:"raised_at"`                 // Timestamp of the transition.
	Acknowledged   bool       `json:"acknowledged"`              // One-way false to true.
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"` // Timestamp of acknowledgment, nil until acknowledged.
}
