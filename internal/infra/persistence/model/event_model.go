// Package model contains the GORM-specific structs mapping domain entities
// to database tables.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventModel is the GORM-specific struct for the 'events' table.
// It represents a managed event with a geofenced venue.
type EventModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	OrganizerID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Name                  string    `gorm:"type:text;not null"`
	VenueAddress          string    `gorm:"type:text"`
	CenterLatitude        float64   `gorm:"type:decimal(10,8);not null"`
	CenterLongitude       float64   `gorm:"type:decimal(11,8);not null"`
	RadiusMeters          float64   `gorm:"type:decimal(8,2);not null"`
	MaxTimeOutsideSeconds int       `gorm:"not null;default:0"`
	StartsAt              time.Time
	EndsAt                time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (EventModel) TableName() string {
	return "events"
}
