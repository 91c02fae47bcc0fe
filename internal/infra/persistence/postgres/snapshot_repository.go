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

// snapshotRepository implements the repository.SnapshotRepository interface.
type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository is the constructor for snapshotRepository.
func NewSnapshotRepository(db *gorm.DB) repository.SnapshotRepository {
	return &snapshotRepository{
		db: db,
	}
}

// CreateSnapshot appends a graded presence snapshot.
func (repo *snapshotRepository) CreateSnapshot(ctx context.Context, snapshot *entity.PresenceSnapshot) error {
	snapshotM := fromSnapshotDomain(snapshot)

	if err := repo.db.WithContext(ctx).Create(snapshotM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrSnapshotInvalid.WrapMessage("invalid participant or event reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create snapshot")
	}

	snapshot.ID = snapshotM.ID
	snapshot.CreatedAt = snapshotM.CreatedAt

	return nil
}

// FindLatestByParticipant retrieves the most recent snapshot of a participant.
func (repo *snapshotRepository) FindLatestByParticipant(ctx context.Context, participantID uuid.UUID) (*entity.PresenceSnapshot, error) {
	var snapshotM model.PresenceSnapshotModel

	if err := repo.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("observed_at DESC").
		First(&snapshotM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSnapshotNotFound
		}

		return nil, errors.Wrap(err, "failed to find latest snapshot by participant")
	}

	return toSnapshotDomain(&snapshotM), nil
}

// FindLatestByEvent retrieves the most recent snapshot of every participant of an event.
func (repo *snapshotRepository) FindLatestByEvent(ctx context.Context, eventID uuid.UUID) ([]*entity.PresenceSnapshot, error) {
	var snapshotModels []*model.PresenceSnapshotModel

	// DISTINCT ON picks the newest row per participant in one scan.
	if err := repo.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (participant_id) *
		     FROM presence_snapshots
		     WHERE event_id = ?
		     ORDER BY participant_id, observed_at DESC`, eventID).
		Scan(&snapshotModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find latest snapshots by event")
	}

	snapshots := make([]*entity.PresenceSnapshot, 0, len(snapshotModels))
	for _, snapshotM := range snapshotModels {
		snapshots = append(snapshots, toSnapshotDomain(snapshotM))
	}

	return snapshots, nil
}

// DeleteOlderThan prunes snapshot history, keeping the newest rows per
// participant.
func (repo *snapshotRepository) DeleteOlderThan(ctx context.Context, eventID uuid.UUID, keepPerParticipant int) error {
	if keepPerParticipant < 1 {
		keepPerParticipant = 1
	}

	if err := repo.db.WithContext(ctx).
		Exec(`DELETE FROM presence_snapshots
		      WHERE event_id = ? AND id NOT IN (
		          SELECT id FROM (
		              SELECT id, ROW_NUMBER() OVER (
		                  PARTITION BY participant_id ORDER BY observed_at DESC
		              ) AS rank
		              FROM presence_snapshots
		              WHERE event_id = ?
		          ) ranked
		          WHERE ranked.rank <= ?
		      )`, eventID, eventID, keepPerParticipant).Error; err != nil {
		return errors.Wrap(err, "failed to prune snapshots")
	}

	return nil
}

// --- Mapper Functions ---

// toSnapshotDomain converts a GORM PresenceSnapshotModel to a domain PresenceSnapshot entity.
func toSnapshotDomain(data *model.PresenceSnapshotModel) *entity.PresenceSnapshot {
	if data == nil {
		return nil
	}

	return &entity.PresenceSnapshot{
		ID:            data.ID,
		ParticipantID: data.ParticipantID,
		EventID:       data.EventID,
		Sample: entity.LocationSample{
			Latitude:       data.Latitude,
			Longitude:      data.Longitude,
			AccuracyMeters: data.AccuracyMeters,
			ObservedAt:     data.ObservedAt,
		},
		IsWithinGeofence:          data.IsWithinGeofence,
		DistanceFromCenterMeters:  data.DistanceFromCenterMeters,
		Severity:                  entity.ParseSeverity(data.Severity),
		MaxTimeOutsideSeconds:     data.MaxTimeOutsideSeconds,
		AccumulatedOutsideSeconds: data.AccumulatedOutsideSeconds,
		TimerActive:               data.TimerActive,
		TimerStartedAt:            data.TimerStartedAt,
		TimerReason:               entity.TimerReason(data.TimerReason),
		MarkedAbsent:              data.MarkedAbsent,
		CreatedAt:                 data.CreatedAt,
	}
}

// fromSnapshotDomain converts a domain PresenceSnapshot entity to a GORM PresenceSnapshotModel.
func fromSnapshotDomain(data *entity.PresenceSnapshot) *model.PresenceSnapshotModel {
	if data == nil {
		return nil
	}

	return &model.PresenceSnapshotModel{
		ID:                        data.ID,
		ParticipantID:             data.ParticipantID,
		EventID:                   data.EventID,
		Latitude:                  data.Sample.Latitude,
		Longitude:                 data.Sample.Longitude,
		AccuracyMeters:            data.Sample.AccuracyMeters,
		ObservedAt:                data.Sample.ObservedAt,
		IsWithinGeofence:          data.IsWithinGeofence,
		DistanceFromCenterMeters:  data.DistanceFromCenterMeters,
		Severity:                  string(data.Severity),
		MaxTimeOutsideSeconds:     data.MaxTimeOutsideSeconds,
		AccumulatedOutsideSeconds: data.AccumulatedOutsideSeconds,
		TimerActive:               data.TimerActive,
		TimerStartedAt:            data.TimerStartedAt,
		TimerReason:               string(data.TimerReason),
		MarkedAbsent:              data.MarkedAbsent,
		CreatedAt:                 data.CreatedAt,
	}
}
