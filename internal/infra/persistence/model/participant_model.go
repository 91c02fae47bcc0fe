package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantModel is the GORM-specific struct for the 'participants' table.
// It represents a person registered to an event.
type ParticipantModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	EventID      uuid.UUID `gorm:"type:uuid;not null;index"`
	DisplayName  string    `gorm:"type:text;not null"`
	MarkedAbsent bool      `gorm:"not null;default:false"`
	CheckedInAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (ParticipantModel) TableName() string {
	return "participants"
}
