package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"perimeter/internal/delivery/http/response"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// defaultAlertLimit bounds the feed when the client does not ask for a size.
const defaultAlertLimit = 50

// AlertHandlerParams holds dependencies for AlertHandler, injected by Fx.
type AlertHandlerParams struct {
	fx.In

	AlertUC usecase.AlertUsecase
	Logger  *slog.Logger
}

// AlertHandler holds dependencies for alert-related handlers
type AlertHandler struct {
	alertUC usecase.AlertUsecase
	logger  *slog.Logger
}

// NewAlertHandler is the constructor for AlertHandler
func NewAlertHandler(params AlertHandlerParams) *AlertHandler {
	return &AlertHandler{
		alertUC: params.AlertUC,
		logger:  params.Logger,
	}
}

// ListAlerts handles retrieving the alert feed of an event, newest first
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return err
	}

	limit := defaultAlertLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return response.BadRequest(c, "INVALID_LIMIT", "Invalid limit parameter")
		}
		limit = parsed
	}

	alerts, err := h.alertUC.GetEventAlerts(c.Request().Context(), eventID, limit)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, alerts, "Alerts retrieved successfully")
}

// ListUnacknowledged handles retrieving the unacknowledged alerts of an event
func (h *AlertHandler) ListUnacknowledged(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return err
	}

	alerts, err := h.alertUC.GetUnacknowledgedAlerts(c.Request().Context(), eventID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, alerts, "Unacknowledged alerts retrieved successfully")
}

// GetSummary handles retrieving the alert badge counters of an event
func (h *AlertHandler) GetSummary(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return err
	}

	summary, err := h.alertUC.GetAlertSummary(c.Request().Context(), eventID)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, summary, "Alert summary retrieved successfully")
}

// AcknowledgeAlert handles acknowledging an alert. Repeated submissions for
// an already acknowledged alert succeed without effect.
func (h *AlertHandler) AcknowledgeAlert(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return err
	}

	alertID, err := uuid.Parse(c.Param("alertID"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid alert ID")
	}

	if err := h.alertUC.AcknowledgeAlert(c.Request().Context(), eventID, alertID); err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Alert acknowledged"}, "Alert acknowledged successfully")
}
