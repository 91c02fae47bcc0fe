package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"perimeter/config"
	deliverycontext "perimeter/internal/delivery/context"
	"perimeter/internal/domain/constants"
	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/domain/service"
	"perimeter/internal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// newRetryableError wraps an error as retryable
func newRetryableError(err error) error {
	return &retryableError{err: err}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler handles Pub/Sub push messages for alert delivery
type PushHandler struct {
	verifyPushAuth  bool
	logger          *slog.Logger
	notificationSvc service.NotificationService
	deviceRepo      repository.DeviceRepository
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config          *config.Config
	Logger          *slog.Logger
	NotificationSvc service.NotificationService
	DeviceRepo      repository.DeviceRepository
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Determine if we need to verify push auth based on config
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth:  verifyPushAuth,
		logger:          params.Logger,
		notificationSvc: params.NotificationSvc,
		deviceRepo:      params.DeviceRepo,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Parse alert event
	var event service.AlertEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse alert event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Extract request_id for distributed tracing
	// Priority: message attributes > event field > existing context
	requestID := h.extractRequestID(ctx, &pushMsg, &event)

	// Create request-scoped logger with request_id
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	// Update context with request_id and logger
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing alert event",
		slog.String("alert_id", event.AlertID),
		slog.String("participant_id", event.ParticipantID),
		slog.String("alert_type", event.AlertType),
	)

	// Deliver the alert to the participant's devices
	if err := h.processAlert(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to process alert",
			slog.String("alert_id", event.AlertID),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// Return 503 for retryable errors to trigger Pub/Sub retry
		// Return 200 for non-retryable errors to prevent infinite retries
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Alert processed successfully",
		slog.String("alert_id", event.AlertID),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, event, or generates a new one
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.AlertEvent) string {
	// 1. Try message attributes (from Pub/Sub)
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	// 2. Try event field (from JSON payload)
	if event.RequestID != "" {
		return event.RequestID
	}

	// 3. Try existing context (from RequestIDMiddleware via X-Request-Id header)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	// 4. Generate new UUID as fallback
	return uuid.New().String()
}

// processAlert delivers an alert event to the participant's active devices
func (h *PushHandler) processAlert(ctx context.Context, event *service.AlertEvent) error {
	alertID, participantID, err := h.parseEventIDs(event)
	if err != nil {
		return err
	}

	devices, err := h.deviceRepo.FindActiveDevicesByParticipant(ctx, participantID)
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	if len(devices) == 0 {
		h.logger.Info("[Worker] No active devices for participant",
			slog.String("alert_id", event.AlertID),
			slog.String("participant_id", event.ParticipantID),
		)

		return nil
	}

	deviceMap := make(map[string]*entity.ParticipantDevice, len(devices))
	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		deviceMap[device.FCMToken] = device
		tokens = append(tokens, device.FCMToken)
	}

	title, body, data := h.prepareAlertContent(event)

	totalSent, totalFailed, invalidTokens, deliveryLogs := h.sendBatchedNotifications(
		ctx, tokens, deviceMap, title, body, data, alertID,
	)

	// Deactivate devices whose tokens Firebase rejected
	if len(invalidTokens) > 0 {
		if err := h.deviceRepo.DeactivateByTokens(ctx, invalidTokens); err != nil {
			h.logger.Warn("[Worker] Failed to deactivate invalid tokens",
				slog.Int("token_count", len(invalidTokens)),
				slog.Any("error", err),
			)
		}
	}

	h.saveDeliveryLogs(ctx, deliveryLogs)

	h.logger.Info("[Worker] Alert delivery completed",
		slog.String("alert_id", event.AlertID),
		slog.Int("total_sent", totalSent),
		slog.Int("total_failed", totalFailed),
		slog.Int("invalid_tokens", len(invalidTokens)),
	)

	return nil
}

// parseEventIDs parses and validates the IDs carried by the event
func (h *PushHandler) parseEventIDs(event *service.AlertEvent) (alertID, participantID uuid.UUID, err error) {
	alertID, err = uuid.Parse(event.AlertID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.WithStack(err)
	}

	participantID, err = uuid.Parse(event.ParticipantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.WithStack(err)
	}

	return alertID, participantID, nil
}

// prepareAlertContent creates the push title, body, and data payload
func (h *PushHandler) prepareAlertContent(event *service.AlertEvent) (title, body string, data map[string]string) {
	switch entity.AlertType(event.AlertType) {
	case entity.AlertTypeWarning:
		title = "離場警告"
		remaining := time.Duration(event.RemainingSeconds) * time.Second
		body = fmt.Sprintf("%s,剩餘時間 %s", event.Message, util.FormatDuration(remaining))
	case entity.AlertTypeExceededLimit:
		title = "超時通知"
		body = event.Message
	case entity.AlertTypeReturned:
		title = "返場通知"
		body = event.Message
	default:
		title = "活動通知"
		body = event.Message
	}

	data = map[string]string{
		"alert_id":          event.AlertID,
		"event_id":          event.EventID,
		"participant_id":    event.ParticipantID,
		"alert_type":        event.AlertType,
		"remaining_seconds": fmt.Sprintf("%d", event.RemainingSeconds),
	}

	return title, body, data
}

// sendBatchedNotifications sends pushes in batches and collects delivery logs
func (h *PushHandler) sendBatchedNotifications(ctx context.Context, tokens []string, deviceMap map[string]*entity.ParticipantDevice, title, body string, data map[string]string, alertID uuid.UUID) (sent, failed int, invalid []string, logs []*entity.AlertDeliveryLog) {
	const batchSize = 500

	totalSent := 0
	totalFailed := 0
	var allInvalidTokens []string
	var deliveryLogs []*entity.AlertDeliveryLog

	for idx := 0; idx < len(tokens); idx += batchSize {
		end := min(idx+batchSize, len(tokens))
		batch := tokens[idx:end]

		successCount, failureCount, batchInvalidTokens, sendErr := h.notificationSvc.SendBatchNotification(
			ctx, batch, title, body, data,
		)

		if sendErr != nil {
			h.logger.Error("[Worker] Failed to send batch",
				slog.Int("batch_start", idx),
				slog.Int("batch_size", len(batch)),
				slog.Any("error", sendErr),
			)
			totalFailed += len(batch)

			// Create failure logs for all tokens in this batch
			for _, token := range batch {
				device, ok := deviceMap[token]
				if !ok || device == nil {
					continue
				}

				deliveryLogs = append(deliveryLogs, &entity.AlertDeliveryLog{
					ID:           uuid.New(),
					AlertID:      alertID,
					DeviceID:     device.ID,
					Status:       "failed",
					ErrorMessage: fmt.Sprintf("batch send error: %v", sendErr),
					SentAt:       time.Now(),
				})
			}

			continue
		}

		totalSent += successCount
		totalFailed += failureCount
		allInvalidTokens = append(allInvalidTokens, batchInvalidTokens...)

		// Create logs for this batch
		for _, token := range batch {
			device, ok := deviceMap[token]
			if !ok || device == nil {
				continue
			}

			status := "sent"
			errorMsg := ""
			if slices.Contains(batchInvalidTokens, token) {
				status = "failed"
				errorMsg = "invalid or unregistered token"
			}

			deliveryLogs = append(deliveryLogs, &entity.AlertDeliveryLog{
				ID:           uuid.New(),
				AlertID:      alertID,
				DeviceID:     device.ID,
				Status:       status,
				ErrorMessage: errorMsg,
				SentAt:       time.Now(),
			})
		}
	}

	return totalSent, totalFailed, allInvalidTokens, deliveryLogs
}

// saveDeliveryLogs persists the delivery log entries
func (h *PushHandler) saveDeliveryLogs(ctx context.Context, logs []*entity.AlertDeliveryLog) {
	for _, log := range logs {
		if err := h.deviceRepo.CreateDeliveryLog(ctx, log); err != nil {
			h.logger.Error("[Worker] Failed to create delivery log",
				slog.String("alert_id", log.AlertID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	// Get the Authorization header
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	// Extract Bearer token
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// Construct the expected audience (the push endpoint URL)
	// The audience should be the URL of this endpoint
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	// Validate the token using Google's ID token validator
	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// Verify the token is from Google Pub/Sub
	// The issuer should be accounts.google.com
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	// Verify email is verified (if email claim exists)
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
