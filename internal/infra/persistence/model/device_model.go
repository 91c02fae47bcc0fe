package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantDeviceModel is the GORM-specific struct for the
// 'participant_devices' table. It represents a participant's device
// registered for push notifications.
type ParticipantDeviceModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ParticipantID uuid.UUID `gorm:"type:uuid;not null;index"`
	FCMToken      string    `gorm:"type:varchar(255);not null"`
	DeviceID      string    `gorm:"type:varchar(255);not null"`
	Platform      string    `gorm:"type:varchar(50);not null"`
	IsActive      bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (ParticipantDeviceModel) TableName() string {
	return "participant_devices"
}

// AlertDeliveryLogModel is the GORM-specific struct for the
// 'alert_delivery_logs' table. It represents a log entry for a single alert
// push sent to a participant device.
type AlertDeliveryLogModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	AlertID      uuid.UUID `gorm:"type:uuid;not null;index"`
	DeviceID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Status       string    `gorm:"type:text;not null;default:'sent'"`
	FCMMessageID string    `gorm:"type:text"`
	ErrorMessage string    `gorm:"type:text"`
	SentAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (AlertDeliveryLogModel) TableName() string {
	return "alert_delivery_logs"
}
