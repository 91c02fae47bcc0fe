// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"perimeter/internal/domain/entity"
	domainerrors "perimeter/internal/domain/errors"
	"perimeter/internal/domain/repository"
	"perimeter/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// eventRepository implements the repository.EventRepository interface.
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository is the constructor for eventRepository.
func NewEventRepository(db *gorm.DB) repository.EventRepository {
	return &eventRepository{
		db: db,
	}
}

// CreateEvent persists a new event.
func (repo *eventRepository) CreateEvent(ctx context.Context, event *entity.Event) error {
	eventM := fromEventDomain(event)

	if err := repo.db.WithContext(ctx).Create(eventM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateEvent
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrEventCreationFailed.WrapMessage("missing required event information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create event")
	}

	// Update the entity with generated values
	event.ID = eventM.ID
	event.CreatedAt = eventM.CreatedAt
	event.UpdatedAt = eventM.UpdatedAt

	return nil
}

// FindEventByID retrieves an event by its unique ID.
func (repo *eventRepository) FindEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var eventM model.EventModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&eventM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrEventNotFound
		}

		return nil, errors.Wrap(err, "failed to find event by ID")
	}

	return toEventDomain(&eventM), nil
}

// FindEventsByOrganizer retrieves all events owned by an organizer (excluding soft-deleted).
func (repo *eventRepository) FindEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*entity.Event, error) {
	var eventModels []*model.EventModel

	if err := repo.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("starts_at DESC").
		Find(&eventModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find events by organizer")
	}

	events := make([]*entity.Event, 0, len(eventModels))
	for _, eventM := range eventModels {
		events = append(events, toEventDomain(eventM))
	}

	return events, nil
}

// FindActiveEvents retrieves events whose time window covers now.
func (repo *eventRepository) FindActiveEvents(ctx context.Context) ([]*entity.Event, error) {
	var eventModels []*model.EventModel

	now := time.Now()
	if err := repo.db.WithContext(ctx).
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Order("starts_at").
		Find(&eventModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active events")
	}

	events := make([]*entity.Event, 0, len(eventModels))
	for _, eventM := range eventModels {
		events = append(events, toEventDomain(eventM))
	}

	return events, nil
}

// UpdateEvent persists changes to an existing event.
func (repo *eventRepository) UpdateEvent(ctx context.Context, event *entity.Event) error {
	eventM := fromEventDomain(event)

	result := repo.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"name":                     eventM.Name,
			"venue_address":            eventM.VenueAddress,
			"max_time_outside_seconds": eventM.MaxTimeOutsideSeconds,
			"starts_at":                eventM.StartsAt,
			"ends_at":                  eventM.EndsAt,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update event")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEventNotFound
	}

	return nil
}

// UpdateGeofence updates the geofence specification of an event.
func (repo *eventRepository) UpdateGeofence(ctx context.Context, eventID uuid.UUID, geofence entity.GeofenceSpec) error {
	result := repo.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"center_latitude":  geofence.CenterLatitude,
			"center_longitude": geofence.CenterLongitude,
			"radius_meters":    geofence.RadiusMeters,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update geofence")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEventNotFound
	}

	return nil
}

// DeleteEvent removes an event by its ID (soft delete).
func (repo *eventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.EventModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete event")
	}

	if result.RowsAffected == 0 {
		return repository.ErrEventNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toEventDomain converts a GORM EventModel to a domain Event entity.
func toEventDomain(data *model.EventModel) *entity.Event {
	if data == nil {
		return nil
	}

	return &entity.Event{
		ID:           data.ID,
		OrganizerID:  data.OrganizerID,
		Name:         data.Name,
		VenueAddress: data.VenueAddress,
		Geofence: entity.GeofenceSpec{
			CenterLatitude:  data.CenterLatitude,
			CenterLongitude: data.CenterLongitude,
			RadiusMeters:    data.RadiusMeters,
		},
		MaxTimeOutsideSeconds: data.MaxTimeOutsideSeconds,
		StartsAt:              data.StartsAt,
		EndsAt:                data.EndsAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}

// fromEventDomain converts a domain Event entity to a GORM EventModel.
func fromEventDomain(data *entity.Event) *model.EventModel {
	if data == nil {
		return nil
	}

	return &model.EventModel{
		ID:                    data.ID,
		OrganizerID:           data.OrganizerID,
		Name:                  data.Name,
		VenueAddress:          data.VenueAddress,
		CenterLatitude:        data.Geofence.CenterLatitude,
		CenterLongitude:       data.Geofence.CenterLongitude,
		RadiusMeters:          data.Geofence.RadiusMeters,
		MaxTimeOutsideSeconds: data.MaxTimeOutsideSeconds,
		StartsAt:              data.StartsAt,
		EndsAt:                data.EndsAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}
