package repository

import (
	"context"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for alert persistence.
var (
	// ErrAlertNotFound is returned when an alert is not found.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrAlertAlreadyAcknowledged is returned when acknowledging an already acknowledged alert.
	ErrAlertAlreadyAcknowledged = errors.New("alert already acknowledged")
)

// AlertRepository defines the interface for alert-related database operations.
type AlertRepository interface {
	// CreateAlert persists a new alert.
	CreateAlert(ctx context.Context, alert *entity.Alert) error

	// FindAlertByID retrieves an alert by its unique ID.
	FindAlertByID(ctx context.Context, id uuid.UUID) (*entity.Alert, error)

	// FindAlertsByEvent retrieves the alerts of an event, newest first.
	FindAlertsByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*entity.Alert, error)

	// FindUnacknowledgedByEvent retrieves the unacknowledged alerts of an event, newest first.
	FindUnacknowledgedByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.Alert, error)

	// AcknowledgeAlert marks an alert acknowledged. Acknowledging twice
	// returns ErrAlertAlreadyAcknowledged.
	AcknowledgeAlert(ctx context.Context, id uuid.UUID, acknowledgedAt time.Time) error
}
