package repository

import (
	"context"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a participant.
var ErrSnapshotNotFound = errors.New("presence snapshot not found")

// SnapshotRepository defines the interface for presence snapshot persistence.
type SnapshotRepository interface {
	// CreateSnapshot appends a graded presence snapshot.
	CreateSnapshot(ctx context.Context, snapshot *entity.PresenceSnapshot) error

	// FindLatestByParticipant retrieves the most recent snapshot of a participant.
	FindLatestByParticipant(ctx context.Context, participantID uuid.UUID) (*entity.PresenceSnapshot, error)

	// FindLatestByEvent retrieves the most recent snapshot of every participant of an event.
	FindLatestByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.PresenceSnapshot, error)

	// DeleteOlderThan prunes snapshots observed before the cutoff, keeping the
	// newest row per participant.
	DeleteOlderThan(ctx context.Context, eventID uuid.UUID, keepPerParticipant int) error
}
