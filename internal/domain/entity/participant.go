package entity

import (
	"time"

	"github.com/google/uuid"
)

// Participant represents a person registered to an event.
type Participant struct {
	ID           uuid.UUID  `json:"id"`                      // The Global Unique Identifier (GUID) for the participant.
	EventID      uuid.UUID  `json:"event_id"`                // The ID of the event this participant belongs to.
	DisplayName  string     `json:"display_name"`            // The name shown on dashboards and alerts.
	MarkedAbsent bool       `json:"marked_absent"`           // Terminal for the session: excluded from timers and alerting until explicitly cleared.
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"` // Timestamp of QR check-in, nil if not checked in.
	CreatedAt    time.Time  `json:"created_at"`              // Timestamp of when this record was created.
	UpdatedAt    time.Time  `json:"updated_at"`              // Timestamp of the last modification.
}
