package postgres

import (
	"context"

	"perimeter/internal/domain/entity"
	domainerrors "perimeter/internal/domain/errors"
	"perimeter/internal/domain/repository"
	"perimeter/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// deviceRepository implements the repository.DeviceRepository interface.
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository is the constructor for deviceRepository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

// CreateDevice persists a new device for a participant.
func (repo *deviceRepository) CreateDevice(ctx context.Context, device *entity.ParticipantDevice) error {
	deviceM := fromDeviceDomain(device)

	if err := repo.db.WithContext(ctx).Create(deviceM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateDevice
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrParticipantNotFound.WrapMessage("invalid participant reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrDeviceTokenInvalid.WrapMessage("missing required device information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create device")
	}

	// Update the entity with generated values
	device.ID = deviceM.ID
	device.CreatedAt = deviceM.CreatedAt
	device.UpdatedAt = deviceM.UpdatedAt

	return nil
}

// FindDeviceByID retrieves a device by its unique ID.
func (repo *deviceRepository) FindDeviceByID(ctx context.Context, id uuid.UUID) (*entity.ParticipantDevice, error) {
	var deviceM model.ParticipantDeviceModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&deviceM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find device by ID")
	}

	return toDeviceDomain(&deviceM), nil
}

// FindDevicesByParticipant retrieves all devices for a participant (including inactive, excluding soft-deleted).
func (repo *deviceRepository) FindDevicesByParticipant(ctx context.Context, participantID uuid.UUID) ([]*entity.ParticipantDevice, error) {
	var deviceModels []*model.ParticipantDeviceModel

	if err := repo.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find devices by participant")
	}

	return toDeviceDomainList(deviceModels), nil
}

// FindActiveDevicesByParticipant retrieves all active devices for a participant (excluding soft-deleted).
func (repo *deviceRepository) FindActiveDevicesByParticipant(ctx context.Context, participantID uuid.UUID) ([]*entity.ParticipantDevice, error) {
	var deviceModels []*model.ParticipantDeviceModel

	if err := repo.db.WithContext(ctx).
		Where("participant_id = ? AND is_active = ?", participantID, true).
		Order("created_at DESC").
		Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active devices by participant")
	}

	return toDeviceDomainList(deviceModels), nil
}

// FindActiveDevicesByEvent retrieves the active devices of every participant of an event.
func (repo *deviceRepository) FindActiveDevicesByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.ParticipantDevice, error) {
	var deviceModels []*model.ParticipantDeviceModel

	if err := repo.db.WithContext(ctx).
		Joins("JOIN participants ON participants.id = participant_devices.participant_id").
		Where("participants.event_id = ? AND participant_devices.is_active = ?", eventID, true).
		Where("participants.deleted_at IS NULL").
		Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active devices by event")
	}

	return toDeviceDomainList(deviceModels), nil
}

// UpdateFCMToken updates the FCM token for a specific device.
func (repo *deviceRepository) UpdateFCMToken(ctx context.Context, deviceID uuid.UUID, fcmToken string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ParticipantDeviceModel{}).
		Where("id = ?", deviceID).
		Update("fcm_token", fcmToken)

	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrDuplicateDevice
		}

		return errors.Wrap(result.Error, "failed to update FCM token")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// DeactivateByTokens marks the devices holding the given FCM tokens inactive.
// Used when Firebase reports tokens as invalid or unregistered.
func (repo *deviceRepository) DeactivateByTokens(ctx context.Context, fcmTokens []string) error {
	if len(fcmTokens) == 0 {
		return nil
	}

	if err := repo.db.WithContext(ctx).
		Model(&model.ParticipantDeviceModel{}).
		Where("fcm_token IN ?", fcmTokens).
		Update("is_active", false).Error; err != nil {
		return errors.Wrap(err, "failed to deactivate devices by tokens")
	}

	return nil
}

// DeleteDevice removes a device by its ID (soft delete).
func (repo *deviceRepository) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ParticipantDeviceModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete device")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// CreateDeliveryLog records the outcome of one push delivery attempt.
func (repo *deviceRepository) CreateDeliveryLog(ctx context.Context, log *entity.AlertDeliveryLog) error {
	logM := &model.AlertDeliveryLogModel{
		ID:           log.ID,
		AlertID:      log.AlertID,
		DeviceID:     log.DeviceID,
		Status:       log.Status,
		FCMMessageID: log.FCMMessageID,
		ErrorMessage: log.ErrorMessage,
		SentAt:       log.SentAt,
	}

	if err := repo.db.WithContext(ctx).Create(logM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create delivery log")
	}

	log.ID = logM.ID

	return nil
}

// --- Mapper Functions ---

// toDeviceDomain converts a GORM ParticipantDeviceModel to a domain ParticipantDevice entity.
func toDeviceDomain(data *model.ParticipantDeviceModel) *entity.ParticipantDevice {
	if data == nil {
		return nil
	}

	return &entity.ParticipantDevice{
		ID:            data.ID,
		ParticipantID: data.ParticipantID,
		FCMToken:      data.FCMToken,
		DeviceID:      data.DeviceID,
		Platform:      data.Platform,
		IsActive:      data.IsActive,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

func toDeviceDomainList(models []*model.ParticipantDeviceModel) []*entity.ParticipantDevice {
	devices := make([]*entity.ParticipantDevice, 0, len(models))
	for _, deviceM := range models {
		devices = append(devices, toDeviceDomain(deviceM))
	}

	return devices
}

// fromDeviceDomain converts a domain ParticipantDevice entity to a GORM ParticipantDeviceModel.
func fromDeviceDomain(data *entity.ParticipantDevice) *model.ParticipantDeviceModel {
	if data == nil {
		return nil
	}

	return &model.ParticipantDeviceModel{
		ID:            data.ID,
		ParticipantID: data.ParticipantID,
		FCMToken:      data.FCMToken,
		DeviceID:      data.DeviceID,
		Platform:      data.Platform,
		IsActive:      data.IsActive,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}
