package handler

import (
	"log/slog"
	"net/http"

	"perimeter/internal/delivery/http/response"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ParticipantHandlerParams holds dependencies for ParticipantHandler, injected by Fx.
type ParticipantHandlerParams struct {
	fx.In

	ParticipantUC usecase.ParticipantUsecase
	Logger        *slog.Logger
}

// ParticipantHandler holds dependencies for participant-related handlers
type ParticipantHandler struct {
	participantUC usecase.ParticipantUsecase
	logger        *slog.Logger
}

// NewParticipantHandler is the constructor for ParticipantHandler
func NewParticipantHandler(params ParticipantHandlerParams) *ParticipantHandler {
	return &ParticipantHandler{
		participantUC: params.ParticipantUC,
		logger:        params.Logger,
	}
}

// RegisterParticipantRequest represents the request body for registering a participant
type RegisterParticipantRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Phone       string `json:"phone,omitempty"`
}

// RegisterParticipant handles registering a participant for an event
func (h *ParticipantHandler) RegisterParticipant(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	var req RegisterParticipantRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid participant input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	input := &usecase.RegisterParticipantInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	}

	participant, err := h.participantUC.RegisterParticipant(c.Request().Context(), eventID, input)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, participant, "Participant registered successfully")
}

// GetParticipant handles retrieving a single participant
func (h *ParticipantHandler) GetParticipant(c echo.Context) error {
	participantID, err := uuid.Parse(c.Param("participantID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid participant ID")
	}

	participant, err := h.participantUC.GetParticipant(c.Request().Context(), participantID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, participant, "Participant retrieved successfully")
}

// ListParticipants handles retrieving all participants of an event
func (h *ParticipantHandler) ListParticipants(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	participants, err := h.participantUC.GetEventParticipants(c.Request().Context(), eventID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, participants, "Participants retrieved successfully")
}

// MarkAbsent handles flagging a participant as absent
func (h *ParticipantHandler) MarkAbsent(c echo.Context) error {
	eventID, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	if err := h.participantUC.MarkAbsent(c.Request().Context(), eventID, participantID); err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Participant marked absent"}, "Participant marked absent")
}

// ClearAbsent handles removing the absent flag from a participant
func (h *ParticipantHandler) ClearAbsent(c echo.Context) error {
	eventID, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	if err := h.participantUC.ClearAbsent(c.Request().Context(), eventID, participantID); err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Absent flag cleared"}, "Absent flag cleared")
}

// RemoveParticipant handles removing a participant from an event
func (h *ParticipantHandler) RemoveParticipant(c echo.Context) error {
	eventID, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	if err := h.participantUC.RemoveParticipant(c.Request().Context(), eventID, participantID); err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Participant removed successfully"}, "Participant removed successfully")
}

// eventIDParam extracts the event ID from the route parameters
func eventIDParam(c echo.Context) (uuid.UUID, error) {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return uuid.Nil, response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	return eventID, nil
}

// pathIDs extracts the event and participant IDs from the route parameters
func pathIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, response.BadRequest(c, "INVALID_ID", "Invalid event ID")
	}

	participantID, err := uuid.Parse(c.Param("participantID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, response.BadRequest(c, "INVALID_ID", "Invalid participant ID")
	}

	return eventID, participantID, nil
}
