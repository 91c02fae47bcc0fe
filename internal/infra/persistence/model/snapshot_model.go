package model

import (
	"time"

	"github.com/google/uuid"
)

// PresenceSnapshotModel is the GORM-specific struct for the
// 'presence_snapshots' table. Snapshots are append-only; each row is one
// graded location observation.
type PresenceSnapshotModel struct {
	ID                        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ParticipantID             uuid.UUID `gorm:"type:uuid;not null;index:idx_snapshots_participant_observed"`
	EventID                   uuid.UUID `gorm:"type:uuid;not null;index"`
	Latitude                  float64   `gorm:"type:decimal(10,8);not null"`
	Longitude                 float64   `gorm:"type:decimal(11,8);not null"`
	AccuracyMeters            float64   `gorm:"type:decimal(8,2);not null;default:0"`
	ObservedAt                time.Time `gorm:"not null;index:idx_snapshots_participant_observed,sort:desc"`
	IsWithinGeofence          bool      `gorm:"not null"`
	DistanceFromCenterMeters  float64   `gorm:"type:decimal(10,2);not null;default:0"`
	Severity                  string    `gorm:"type:text;not null"`
	MaxTimeOutsideSeconds     int       `gorm:"not null;default:0"`
	AccumulatedOutsideSeconds int       `gorm:"not null;default:0"`
	TimerActive               bool      `gorm:"not null;default:false"`
	TimerStartedAt            *time.Time
	TimerReason               string `gorm:"type:text"`
	MarkedAbsent              bool   `gorm:"not null;default:false"`
	CreatedAt                 time.Time
}

// TableName explicitly sets the table name for GORM.
func (PresenceSnapshotModel) TableName() string {
	return "presence_snapshots"
}
