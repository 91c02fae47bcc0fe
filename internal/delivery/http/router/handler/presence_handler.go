package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"perimeter/internal/delivery/http/response"
	"perimeter/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// PresenceHandlerParams holds dependencies for PresenceHandler, injected by Fx.
type PresenceHandlerParams struct {
	fx.In

	PresenceUC usecase.PresenceUsecase
	Logger     *slog.Logger
}

// PresenceHandler holds dependencies for presence-related handlers
type PresenceHandler struct {
	presenceUC usecase.PresenceUsecase
	logger     *slog.Logger
}

// NewPresenceHandler is the constructor for PresenceHandler
func NewPresenceHandler(params PresenceHandlerParams) *PresenceHandler {
	return &PresenceHandler{
		presenceUC: params.PresenceUC,
		logger:     params.Logger,
	}
}

// IngestSampleRequest represents one raw location sample from a participant's device
type IngestSampleRequest struct {
	Latitude       float64   `json:"latitude" validate:"min=-90,max=90"`
	Longitude      float64   `json:"longitude" validate:"min=-180,max=180"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty" validate:"omitempty,min=0"`
	ObservedAt     time.Time `json:"observed_at" validate:"required"`
}

// IngestSample handles one reported location sample. Stale or duplicate
// samples are absorbed; the response always carries the current state.
func (h *PresenceHandler) IngestSample(c echo.Context) error {
	eventID, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	var req IngestSampleRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid location sample")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	input := &usecase.IngestSampleInput{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		ObservedAt:     req.ObservedAt,
	}

	state, err := h.presenceUC.IngestSample(c.Request().Context(), eventID, participantID, input)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, state, "Sample ingested successfully")
}

// GetParticipantState handles retrieving the display state of one participant
func (h *PresenceHandler) GetParticipantState(c echo.Context) error {
	_, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	state, err := h.presenceUC.GetDisplayState(c.Request().Context(), participantID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, state, "Presence state retrieved successfully")
}

// WatchParticipantState streams a participant's state changes as
// server-sent events, one event per distinct change, until the client
// disconnects.
func (h *PresenceHandler) WatchParticipantState(c echo.Context) error {
	_, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	updates, cancel := h.presenceUC.Subscribe(ctx, participantID)
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(state)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return err
			}
			resp.Flush()
		}
	}
}

// GetEventStates handles retrieving the display state of every tracked
// participant of an event, for the dashboard roster.
func (h *PresenceHandler) GetEventStates(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return err
	}

	states, err := h.presenceUC.GetEventDisplayStates(c.Request().Context(), eventID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, states, "Presence states retrieved successfully")
}
