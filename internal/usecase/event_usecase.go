package usecase

import (
	"context"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateEventInput represents the input for creating a new event
type CreateEventInput struct {
	Name                  string    `json:"name"`
	VenueAddress          string    `json:"venue_address"`
	CenterLatitude        float64   `json:"center_latitude"`
	CenterLongitude       float64   `json:"center_longitude"`
	RadiusMeters          float64   `json:"radius_meters"`
	MaxTimeOutsideSeconds int       `json:"max_time_outside_seconds"`
	StartsAt              time.Time `json:"starts_at"`
	EndsAt                time.Time `json:"ends_at"`
}

// UpdateEventInput represents the input for updating an existing event
type UpdateEventInput struct {
	Name                  *string    `json:"name,omitempty"`
	VenueAddress          *string    `json:"venue_address,omitempty"`
	MaxTimeOutsideSeconds *int       `json:"max_time_outside_seconds,omitempty"`
	StartsAt              *time.Time `json:"starts_at,omitempty"`
	EndsAt                *time.Time `json:"ends_at,omitempty"`
}

// UpdateGeofenceInput represents the input for moving or resizing an event's geofence.
// The radius may come from a drag handle and is clamped to the configured bounds.
type UpdateGeofenceInput struct {
	CenterLatitude  *float64 `json:"center_latitude,omitempty"`
	CenterLongitude *float64 `json:"center_longitude,omitempty"`
	RadiusMeters    *float64 `json:"radius_meters,omitempty"`

	// HandleLatitude/HandleLongitude describe the dragged radius handle; when
	// both are set the radius is derived from the distance to the center.
	HandleLatitude  *float64 `json:"handle_latitude,omitempty"`
	HandleLongitude *float64 `json:"handle_longitude,omitempty"`
}

// EventUsecase defines the interface for event management use cases
type EventUsecase interface {
	// CreateEvent creates a new event with a clamped geofence
	CreateEvent(ctx context.Context, organizerID uuid.UUID, input *CreateEventInput) (*entity.Event, error)

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, eventID uuid.UUID) (*entity.Event, error)

	// GetOrganizerEvents retrieves all events owned by an organizer
	GetOrganizerEvents(ctx context.Context, organizerID uuid.UUID) ([]*entity.Event, error)

	// UpdateEvent updates the mutable fields of an event
	UpdateEvent(ctx context.Context, organizerID, eventID uuid.UUID, input *UpdateEventInput) (*entity.Event, error)

	// UpdateGeofence moves or resizes the event's geofence
	UpdateGeofence(ctx context.Context, organizerID, eventID uuid.UUID, input *UpdateGeofenceInput) (*entity.Event, error)

	// DeleteEvent removes an event
	DeleteEvent(ctx context.Context, organizerID, eventID uuid.UUID) error
}
