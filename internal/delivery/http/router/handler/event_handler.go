// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"perimeter/internal/delivery/http/response"
	domainerrors "perimeter/internal/domain/errors"
	"perimeter/internal/domain/repository"
	"perimeter/internal/usecase"
	"perimeter/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// organizerIDHeader carries the organizer's identity. Dashboard sessions are
// established out of band; the API trusts the gateway to set this header.
const organizerIDHeader = "X-Organizer-ID"

// EventHandlerParams holds dependencies for EventHandler, injected by Fx.
type EventHandlerParams struct {
	fx.In

	EventUC usecase.EventUsecase
	Logger  *slog.Logger
}

// EventHandler holds dependencies for event-related handlers
type EventHandler struct {
	eventUC usecase.EventUsecase
	logger  *slog.Logger
}

// NewEventHandler is the constructor for EventHandler
func NewEventHandler(params EventHandlerParams) *EventHandler {
	return &EventHandler{
		eventUC: params.EventUC,
		logger:  params.Logger,
	}
}

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	Name                  string    `json:"name" validate:"required"`
	VenueAddress          string    `json:"venue_address"`
	CenterLatitude        float64   `json:"center_latitude" validate:"min=-90,max=90"`
	CenterLongitude       float64   `json:"center_longitude" validate:"min=-180,max=180"`
	RadiusMeters          float64   `json:"radius_meters" validate:"omitempty,min=0"`
	MaxTimeOutsideSeconds int       `json:"max_time_outside_seconds" validate:"omitempty,min=0"`
	StartsAt              time.Time `json:"starts_at" validate:"required"`
	EndsAt                time.Time `json:"ends_at" validate:"required"`
}

// UpdateEventRequest represents the request body for updating an event
type UpdateEventRequest struct {
	Name                  *string    `json:"name,omitempty"`
	VenueAddress          *string    `json:"venue_address,omitempty"`
	MaxTimeOutsideSeconds *int       `json:"max_time_outside_seconds,omitempty" validate:"omitempty,min=0"`
	StartsAt              *time.Time `json:"starts_at,omitempty"`
	EndsAt                *time.Time `json:"ends_at,omitempty"`
}

// UpdateGeofenceRequest represents the request body for moving or resizing
// the event's geofence. Either an explicit radius or a dragged handle
// position may be supplied.
type UpdateGeofenceRequest struct {
	CenterLatitude  *float64 `json:"center_latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	CenterLongitude *float64 `json:"center_longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	RadiusMeters    *float64 `json:"radius_meters,omitempty" validate:"omitempty,min=0"`
	HandleLatitude  *float64 `json:"handle_latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	HandleLongitude *float64 `json:"handle_longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

// CreateEvent handles creating a new event
func (h *EventHandler) CreateEvent(c echo.Context) error {
	organizerID, err := organizerID(c)
	if err != nil {
		return err
	}

	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid event input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	input := &usecase.CreateEventInput{
		Name:                  req.Name,
		VenueAddress:          req.VenueAddress,
		CenterLatitude:        req.CenterLatitude,
		CenterLongitude:       req.CenterLongitude,
		RadiusMeters:          req.RadiusMeters,
		MaxTimeOutsideSeconds: req.MaxTimeOutsideSeconds,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
	}

	event, err := h.eventUC.CreateEvent(c.Request().Context(), organizerID, input)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, event, "Event created successfully")
}

// GetEvent handles retrieving a single event
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	event, err := h.eventUC.GetEvent(c.Request().Context(), eventID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, event, "Event retrieved successfully")
}

// ListEvents handles retrieving all events of the organizer
func (h *EventHandler) ListEvents(c echo.Context) error {
	organizerID, err := organizerID(c)
	if err != nil {
		return err
	}

	events, err := h.eventUC.GetOrganizerEvents(c.Request().Context(), organizerID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, events, "Events retrieved successfully")
}

// UpdateEvent handles updating an event's mutable fields
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	organizerID, err := organizerID(c)
	if err != nil {
		return err
	}

	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid event input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	input := &usecase.UpdateEventInput{
		Name:                  req.Name,
		VenueAddress:          req.VenueAddress,
		MaxTimeOutsideSeconds: req.MaxTimeOutsideSeconds,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
	}

	event, err := h.eventUC.UpdateEvent(c.Request().Context(), organizerID, eventID, input)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, event, "Event updated successfully")
}

// UpdateGeofence handles moving or resizing the event's geofence
func (h *EventHandler) UpdateGeofence(c echo.Context) error {
	organizerID, err := organizerID(c)
	if err != nil {
		return err
	}

	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	var req UpdateGeofenceRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid geofence input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	input := &usecase.UpdateGeofenceInput{
		CenterLatitude:  req.CenterLatitude,
		CenterLongitude: req.CenterLongitude,
		RadiusMeters:    req.RadiusMeters,
		HandleLatitude:  req.HandleLatitude,
		HandleLongitude: req.HandleLongitude,
	}

	event, err := h.eventUC.UpdateGeofence(c.Request().Context(), organizerID, eventID, input)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, event, "Geofence updated successfully")
}

// DeleteEvent handles deleting an event
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	organizerID, err := organizerID(c)
	if err != nil {
		return err
	}

	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	if err := h.eventUC.DeleteEvent(c.Request().Context(), organizerID, eventID); err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Event deleted successfully"}, "Event deleted successfully")
}

// organizerID extracts the organizer's ID from the request header
func organizerID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(organizerIDHeader)
	if raw == "" {
		return uuid.Nil, response.Unauthorized(c, "MISSING_ORGANIZER", "Organizer ID header missing")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, response.Unauthorized(c, "INVALID_ORGANIZER", "Invalid organizer ID header")
	}

	return id, nil
}

// handleAppError handles application errors
func handleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())
	}

	if mapped, ok := mapSentinelError(err); ok {
		return response.Error(c, mapped.HTTPCode(), mapped.ErrorCode(), mapped.Message(), mapped.Details())
	}

	return errors.WithStack(err)
}

// mapSentinelError converts use case sentinel errors to their API-facing form.
func mapSentinelError(err error) (domainerrors.AppError, bool) {
	switch {
	case errors.Is(err, impl.ErrEventNotFound), errors.Is(err, repository.ErrEventNotFound):
		return domainerrors.ErrEventNotFound, true
	case errors.Is(err, impl.ErrParticipantNotFound), errors.Is(err, repository.ErrParticipantNotFound):
		return domainerrors.ErrParticipantNotFound, true
	case errors.Is(err, impl.ErrEventUnauthorized),
		errors.Is(err, impl.ErrParticipantUnauthorized),
		errors.Is(err, impl.ErrDeviceUnauthorized):
		return domainerrors.ErrForbidden, true
	case errors.Is(err, impl.ErrInvalidEventWindow):
		return domainerrors.ErrValidationFailed, true
	case errors.Is(err, impl.ErrAlreadyCheckedIn):
		return domainerrors.ErrParticipantAlreadyCheckedIn, true
	case errors.Is(err, repository.ErrDuplicateParticipant):
		return domainerrors.ErrParticipantAlreadyExists, true
	case errors.Is(err, repository.ErrAlertNotFound):
		return domainerrors.ErrAlertNotFound, true
	case errors.Is(err, repository.ErrAlertAlreadyAcknowledged):
		return domainerrors.ErrAlertAlreadyAcknowledged, true
	case errors.Is(err, impl.ErrDeviceNotFound), errors.Is(err, repository.ErrDeviceNotFound):
		return domainerrors.ErrDeviceNotFound, true
	default:
		return nil, false
	}
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
