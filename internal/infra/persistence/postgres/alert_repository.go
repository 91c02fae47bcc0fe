package postgres

import (
	"context"
	"time"

	"perimeter/internal/domain/entity"
	domainerrors "perimeter/internal/domain/errors"
	"perimeter/internal/domain/repository"
	"perimeter/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// alertRepository implements the repository.AlertRepository interface.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository is the constructor for alertRepository.
func NewAlertRepository(db *gorm.DB) repository.AlertRepository {
	return &alertRepository{
		db: db,
	}
}

// CreateAlert persists a new alert.
func (repo *alertRepository) CreateAlert(ctx context.Context, alert *entity.Alert) error {
	alertM := fromAlertDomain(alert)

	if err := repo.db.WithContext(ctx).Create(alertM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrAlertNotFound.WrapMessage("invalid participant or event reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create alert")
	}

	alert.ID = alertM.ID

	return nil
}

// FindAlertByID retrieves an alert by its unique ID.
func (repo *alertRepository) FindAlertByID(ctx context.Context, id uuid.UUID) (*entity.Alert, error) {
	var alertM model.AlertModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alertM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAlertNotFound
		}

		return nil, errors.Wrap(err, "failed to find alert by ID")
	}

	return toAlertDomain(&alertM), nil
}

// FindAlertsByEvent retrieves the alerts of an event, newest first.
func (repo *alertRepository) FindAlertsByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*entity.Alert, error) {
	var alertModels []*model.AlertModel

	query := repo.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("raised_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&alertModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find alerts by event")
	}

	alerts := make([]*entity.Alert, 0, len(alertModels))
	for _, alertM := range alertModels {
		alerts = append(alerts, toAlertDomain(alertM))
	}

	return alerts, nil
}

// FindUnacknowledgedByEvent retrieves the unacknowledged alerts of an event, newest first.
func (repo *alertRepository) FindUnacknowledgedByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.Alert, error) {
	var alertModels []*model.AlertModel

	if err := repo.db.WithContext(ctx).
		Where("event_id = ? AND acknowledged = ?", eventID, false).
		Order("raised_at DESC").
		Find(&alertModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find unacknowledged alerts by event")
	}

	alerts := make([]*entity.Alert, 0, len(alertModels))
	for _, alertM := range alertModels {
		alerts = append(alerts, toAlertDomain(alertM))
	}

	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged. The guard on the
// acknowledged column makes duplicate submissions detectable.
func (repo *alertRepository) AcknowledgeAlert(ctx context.Context, id uuid.UUID, acknowledgedAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AlertModel{}).
		Where("id = ? AND acknowledged = ?", id, false).
		Updates(map[string]any{
			"acknowledged":    true,
			"acknowledged_at": acknowledgedAt,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to acknowledge alert")
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing alert from one already acknowledged.
		var count int64
		if err := repo.db.WithContext(ctx).
			Model(&model.AlertModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check alert existence")
		}
		if count == 0 {
			return repository.ErrAlertNotFound
		}

		return repository.ErrAlertAlreadyAcknowledged
	}

	return nil
}

// --- Mapper Functions ---

// toAlertDomain converts a GORM AlertModel to a domain Alert entity.
func toAlertDomain(data *model.AlertModel) *entity.Alert {
	if data == nil {
		return nil
	}

	return &entity.Alert{
		ID:             data.ID,
		ParticipantID:  data.ParticipantID,
		EventID:        data.EventID,
		Type:           entity.AlertType(data.Type),
		Message:        data.Message,
		RaisedAt:       data.RaisedAt,
		Acknowledged:   data.Acknowledged,
		AcknowledgedAt: data.AcknowledgedAt,
	}
}

// fromAlertDomain converts a domain Alert entity to a GORM AlertModel.
func fromAlertDomain(data *entity.Alert) *model.AlertModel {
	if data == nil {
		return nil
	}

	return &model.AlertModel{
		ID:             data.ID,
		ParticipantID:  data.ParticipantID,
		EventID:        data.EventID,
		Type:           string(data.Type),
		Message:        data.Message,
		RaisedAt:       data.RaisedAt,
		Acknowledged:   data.Acknowledged,
		AcknowledgedAt: data.AcknowledgedAt,
	}
}
