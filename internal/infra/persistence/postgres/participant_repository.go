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

// participantRepository implements the repository.ParticipantRepository interface.
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository is the constructor for participantRepository.
func NewParticipantRepository(db *gorm.DB) repository.ParticipantRepository {
	return &participantRepository{
		db: db,
	}
}

// CreateParticipant registers a participant for an event.
func (repo *participantRepository) CreateParticipant(ctx context.Context, participant *entity.Participant) error {
	participantM := fromParticipantDomain(participant)

	if err := repo.db.WithContext(ctx).Create(participantM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateParticipant
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrEventNotFound.WrapMessage("invalid event reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required participant information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create participant")
	}

	// Update the entity with generated values
	participant.ID = participantM.ID
	participant.CreatedAt = participantM.CreatedAt
	participant.UpdatedAt = participantM.UpdatedAt

	return nil
}

// FindParticipantByID retrieves a participant by its unique ID.
func (repo *participantRepository) FindParticipantByID(ctx context.Context, id uuid.UUID) (*entity.Participant, error) {
	var participantM model.ParticipantModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&participantM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}

		return nil, errors.Wrap(err, "failed to find participant by ID")
	}

	return toParticipantDomain(&participantM), nil
}

// FindParticipantsByEvent retrieves all participants of an event (excluding soft-deleted).
func (repo *participantRepository) FindParticipantsByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.Participant, error) {
	var participantModels []*model.ParticipantModel

	if err := repo.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("display_name").
		Find(&participantModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find participants by event")
	}

	participants := make([]*entity.Participant, 0, len(participantModels))
	for _, participantM := range participantModels {
		participants = append(participants, toParticipantDomain(participantM))
	}

	return participants, nil
}

// SetCheckedIn records the check-in time of a participant.
func (repo *participantRepository) SetCheckedIn(ctx context.Context, id uuid.UUID, checkedInAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ParticipantModel{}).
		Where("id = ?", id).
		Update("checked_in_at", checkedInAt)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set check-in time")
	}

	if result.RowsAffected == 0 {
		return repository.ErrParticipantNotFound
	}

	return nil
}

// SetMarkedAbsent flips the absent flag of a participant.
func (repo *participantRepository) SetMarkedAbsent(ctx context.Context, id uuid.UUID, markedAbsent bool) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ParticipantModel{}).
		Where("id = ?", id).
		Update("marked_absent", markedAbsent)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set absent flag")
	}

	if result.RowsAffected == 0 {
		return repository.ErrParticipantNotFound
	}

	return nil
}

// DeleteParticipant removes a participant by its ID (soft delete).
func (repo *participantRepository) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ParticipantModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete participant")
	}

	if result.RowsAffected == 0 {
		return repository.ErrParticipantNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toParticipantDomain converts a GORM ParticipantModel to a domain Participant entity.
func toParticipantDomain(data *model.ParticipantModel) *entity.Participant {
	if data == nil {
		return nil
	}

	return &entity.Participant{
		ID:           data.ID,
		EventID:      data.EventID,
		DisplayName:  data.DisplayName,
		MarkedAbsent: data.MarkedAbsent,
		CheckedInAt:  data.CheckedInAt,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromParticipantDomain converts a domain Participant entity to a GORM ParticipantModel.
func fromParticipantDomain(data *entity.Participant) *model.ParticipantModel {
	if data == nil {
		return nil
	}

	return &model.ParticipantModel{
		ID:           data.ID,
		EventID:      data.EventID,
		DisplayName:  data.DisplayName,
		MarkedAbsent: data.MarkedAbsent,
		CheckedInAt:  data.CheckedInAt,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
