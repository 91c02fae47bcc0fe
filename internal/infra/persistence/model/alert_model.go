package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertModel is the GORM-specific struct for the 'alerts' table.
// It represents one qualifying presence transition.
type AlertModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ParticipantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Type           string    `gorm:"type:text;not null"`
	Message        string    `gorm:"type:text"`
	RaisedAt       time.Time `gorm:"not null;index"`
	Acknowledged   bool      `gorm:"not null;default:false"`
	AcknowledgedAt *time.Time
}

// TableName explicitly sets the table name for GORM.
func (AlertModel) TableName() string {
	return "alerts"
}
