// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a managed event with a geofenced venue.
type Event struct {
	ID                    uuid.UUID    `json:"id"`                       // The Global Unique Identifier (GUID) for the event.
	OrganizerID           uuid.UUID    `json:"organizer_id"`             // The ID of the organizer who owns this event.
	Name                  string       `json:"name"`                     // The display name of the event.
	VenueAddress          string       `json:"venue_address"`            // The full address of the venue.
	Geofence              GeofenceSpec `json:"geofence"`                 // The circular perimeter of the venue.
	MaxTimeOutsideSeconds int          `json:"max_time_outside_seconds"` // Allowed time outside the perimeter before a participant exceeds the limit.
	StartsAt              time.Time    `json:"starts_at"`                // Scheduled start of the event.
	EndsAt                time.Time    `json:"ends_at"`                  // Scheduled end of the event.
	CreatedAt             time.Time    `json:"created_at"`               // Timestamp of when this record was created.
	UpdatedAt             time.Time    `json:"updated_at"`               // Timestamp of the last modification.
}
