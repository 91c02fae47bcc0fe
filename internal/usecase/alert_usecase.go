package usecase

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// AlertSummary represents the alert badge state of an event
type AlertSummary struct {
	UnacknowledgedCount int  `json:"unacknowledged_count"`
	HasExceededLimit    bool `json:"has_exceeded_limit"`
}

// AlertUsecase defines the interface for alert management use cases
type AlertUsecase interface {
	// GetEventAlerts retrieves the alerts of an event, newest first
	GetEventAlerts(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Alert, error)

	// GetUnacknowledgedAlerts retrieves the unacknowledged alerts of an event
	GetUnacknowledgedAlerts(ctx context.Context, eventID uuid.UUID) ([]entity.Alert, error)

	// GetAlertSummary returns the badge counters of an event
	GetAlertSummary(ctx context.Context, eventID uuid.UUID) (*AlertSummary, error)

	// AcknowledgeAlert marks an alert acknowledged. The local mirror flips
	// immediately; a failed submission rolls it back. Duplicate submissions
	// for the same alert collapse into the one in flight.
	AcknowledgeAlert(ctx context.Context, eventID, alertID uuid.UUID) error
}
