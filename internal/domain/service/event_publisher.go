package service

import (
	"context"
)

// AlertEvent represents an alert to be processed by the presence worker
type AlertEvent struct {
	RequestID        string `json:"request_id,omitempty"` // For distributed tracing
	AlertID          string `json:"alert_id"`
	EventID          string `json:"event_id"`
	ParticipantID    string `json:"participant_id"`
	ParticipantName  string `json:"participant_name"`
	AlertType        string `json:"alert_type"`
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remaining_seconds"`
	RaisedAt         int64  `json:"raised_at"` // Unix seconds
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAlertEvent publishes an alert event for async push delivery
	PublishAlertEvent(ctx context.Context, event *AlertEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
