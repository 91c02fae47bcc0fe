package handler

import (
	"log/slog"
	"net/http"

	"perimeter/internal/delivery/http/response"
	"perimeter/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CheckInHandlerParams holds dependencies for CheckInHandler, injected by Fx.
type CheckInHandlerParams struct {
	fx.In

	CheckInUC usecase.CheckInUsecase
	Logger    *slog.Logger
}

// CheckInHandler holds dependencies for check-in related handlers
type CheckInHandler struct {
	checkInUC usecase.CheckInUsecase
	logger    *slog.Logger
}

// NewCheckInHandler is the constructor for CheckInHandler
func NewCheckInHandler(params CheckInHandlerParams) *CheckInHandler {
	return &CheckInHandler{
		checkInUC: params.CheckInUC,
		logger:    params.Logger,
	}
}

// CheckInRequest represents scanned QR data submitted by the venue scanner
type CheckInRequest struct {
	QRData string `json:"qr_data" validate:"required"`
}

// GetCheckInQR handles generating the QR code a participant presents at the venue
func (h *CheckInHandler) GetCheckInQR(c echo.Context) error {
	eventID, participantID, err := pathIDs(c)
	if err != nil {
		return err
	}

	png, err := h.checkInUC.GenerateCheckInQR(c.Request().Context(), eventID, participantID)
	if err != nil {
		return handleAppError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// CheckIn handles recording a participant's arrival from scanned QR data
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid check-in input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	participant, err := h.checkInUC.CheckIn(c.Request().Context(), req.QRData)
	if err != nil {
		return handleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, participant, "Participant checked in successfully")
}
