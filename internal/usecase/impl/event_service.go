package impl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perimeter/config"
	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/geo"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
)

var (
	// ErrEventNotFound is returned when an event is not found
	ErrEventNotFound = errors.New("event not found")
	// ErrEventUnauthorized is returned when an organizer tries to access an event they don't own
	ErrEventUnauthorized = errors.New("unauthorized to access this event")
	// ErrInvalidEventWindow is returned when an event ends before it starts
	ErrInvalidEventWindow = errors.New("event must end after it starts")
)

type eventService struct {
	cfg       *config.GeofenceConfig
	presence  *config.PresenceConfig
	eventRepo repository.EventRepository
}

// NewEventService creates a new event service instance
func NewEventService(cfg *config.Config, eventRepo repository.EventRepository) usecase.EventUsecase {
	return &eventService{
		cfg:       cfg.Geofence,
		presence:  cfg.Presence,
		eventRepo: eventRepo,
	}
}

// CreateEvent creates a new event with a clamped geofence
func (s *eventService) CreateEvent(ctx context.Context, organizerID uuid.UUID, input *usecase.CreateEventInput) (*entity.Event, error) {
	if !input.EndsAt.IsZero() && !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidEventWindow
	}

	maxOutside := input.MaxTimeOutsideSeconds
	if maxOutside < 0 {
		maxOutside = 0
	}
	if maxOutside == 0 && s.presence.MaxTimeOutsideSeconds > 0 {
		maxOutside = s.presence.MaxTimeOutsideSeconds
	}

	event := &entity.Event{
		ID:           uuid.New(),
		OrganizerID:  organizerID,
		Name:         input.Name,
		VenueAddress: input.VenueAddress,
		Geofence: s.clampGeofence(entity.GeofenceSpec{
			CenterLatitude:  input.CenterLatitude,
			CenterLongitude: input.CenterLongitude,
			RadiusMeters:    input.RadiusMeters,
		}),
		MaxTimeOutsideSeconds: maxOutside,
		StartsAt:              input.StartsAt,
		EndsAt:                input.EndsAt,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}

	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*entity.Event, error) {
	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}

		return nil, fmt.Errorf("failed to find event by ID: %w", err)
	}

	return event, nil
}

// GetOrganizerEvents retrieves all events owned by an organizer
func (s *eventService) GetOrganizerEvents(ctx context.Context, organizerID uuid.UUID) ([]*entity.Event, error) {
	events, err := s.eventRepo.FindEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by organizer: %w", err)
	}

	return events, nil
}

// UpdateEvent updates the mutable fields of an event
func (s *eventService) UpdateEvent(ctx context.Context, organizerID, eventID uuid.UUID, input *usecase.UpdateEventInput) (*entity.Event, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		event.Name = *input.Name
	}
	if input.VenueAddress != nil {
		event.VenueAddress = *input.VenueAddress
	}
	if input.MaxTimeOutsideSeconds != nil && *input.MaxTimeOutsideSeconds >= 0 {
		event.MaxTimeOutsideSeconds = *input.MaxTimeOutsideSeconds
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if !event.EndsAt.IsZero() && !event.EndsAt.After(event.StartsAt) {
		return nil, ErrInvalidEventWindow
	}
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return event, nil
}

// UpdateGeofence moves or resizes the event's geofence. A dragged resize
// handle is converted back into a radius before clamping, so a handle pulled
// inside the minimum snaps to the minimum circle instead of collapsing it.
func (s *eventService) UpdateGeofence(ctx context.Context, organizerID, eventID uuid.UUID, input *usecase.UpdateGeofenceInput) (*entity.Event, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	spec := event.Geofence
	if input.CenterLatitude != nil {
		spec.CenterLatitude = *input.CenterLatitude
	}
	if input.CenterLongitude != nil {
		spec.CenterLongitude = *input.CenterLongitude
	}
	if input.RadiusMeters != nil {
		spec.RadiusMeters = *input.RadiusMeters
	}
	if input.HandleLatitude != nil && input.HandleLongitude != nil {
		spec.RadiusMeters = geo.RadiusFromHandleDrag(
			spec.CenterLatitude, spec.CenterLongitude,
			*input.HandleLatitude, *input.HandleLongitude,
		)
	}
	spec = s.clampGeofence(spec)

	if err := s.eventRepo.UpdateGeofence(ctx, eventID, spec); err != nil {
		return nil, fmt.Errorf("failed to update geofence: %w", err)
	}

	event.Geofence = spec
	event.UpdatedAt = time.Now()

	return event, nil
}

// DeleteEvent removes an event
func (s *eventService) DeleteEvent(ctx context.Context, organizerID, eventID uuid.UUID) error {
	if _, err := s.ownedEvent(ctx, organizerID, eventID); err != nil {
		return err
	}

	if err := s.eventRepo.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

// ownedEvent fetches an event and verifies ownership
func (s *eventService) ownedEvent(ctx context.Context, organizerID, eventID uuid.UUID) (*entity.Event, error) {
	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}

		return nil, fmt.Errorf("failed to find event by ID: %w", err)
	}

	if event.OrganizerID != organizerID {
		return nil, ErrEventUnauthorized
	}

	return event, nil
}

// clampGeofence applies the configured radius bounds, falling back to the
// default radius when none was given.
func (s *eventService) clampGeofence(spec entity.GeofenceSpec) entity.GeofenceSpec {
	if spec.RadiusMeters <= 0 {
		spec.RadiusMeters = s.cfg.DefaultRadiusMeters
	}
	if spec.RadiusMeters < s.cfg.MinRadiusMeters {
		spec.RadiusMeters = s.cfg.MinRadiusMeters
	}
	if s.cfg.MaxRadiusMeters > 0 && spec.RadiusMeters > s.cfg.MaxRadiusMeters {
		spec.RadiusMeters = s.cfg.MaxRadiusMeters
	}

	return spec.ClampRadius()
}
