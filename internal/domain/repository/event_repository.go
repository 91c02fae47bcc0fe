// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for event persistence.
var (
	// ErrEventNotFound is returned when an event is not found.
	ErrEventNotFound = errors.New("event not found")
	// ErrDuplicateEvent is returned when trying to create an event that already exists.
	ErrDuplicateEvent = errors.New("event already exists")
)

// EventRepository defines the interface for event-related database operations.
type EventRepository interface {
	// CreateEvent persists a new event.
	CreateEvent(ctx context.Context, event *entity.Event) error

	// FindEventByID retrieves an event by its unique ID.
	FindEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)

	// FindEventsByOrganizer retrieves all events owned by an organizer.
	FindEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*entity.Event, error)

	// FindActiveEvents retrieves events whose time window covers now.
	FindActiveEvents(ctx context.Context) ([]*entity.Event, error)

	// UpdateEvent persists changes to an existing event.
	UpdateEvent(ctx context.Context, event *entity.Event) error

	// UpdateGeofence updates the geofence specification of an event.
	UpdateGeofence(ctx context.Context, eventID uuid.UUID, geofence entity.GeofenceSpec) error

	// DeleteEvent removes an event by its ID (soft delete).
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}
