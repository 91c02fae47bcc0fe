package alert

import (
	"testing"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedAlert(eventID uuid.UUID, alertType entity.AlertType, raisedAt time.Time) *entity.Alert {
	return &entity.Alert{
		ID:            uuid.New(),
		ParticipantID: uuid.New(),
		EventID:       eventID,
		Type:          alertType,
		RaisedAt:      raisedAt,
	}
}

func TestStore_IndependentAcknowledgment(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	older := storedAlert(eventID, entity.AlertTypeWarning, now)
	newer := storedAlert(eventID, entity.AlertTypeExceededLimit, now.Add(time.Minute))
	store.Add(older)
	store.Add(newer)

	require.Equal(t, 2, store.UnacknowledgedCount(eventID))

	// Acknowledging the older alert leaves the newer one untouched.
	require.True(t, store.SetAcknowledged(older.ID, true, now.Add(2*time.Minute)))

	unacked := store.Unacknowledged(eventID)
	require.Len(t, unacked, 1)
	assert.Equal(t, newer.ID, unacked[0].ID)

	acked, ok := store.Get(older.ID)
	require.True(t, ok)
	assert.True(t, acked.Acknowledged)
	require.NotNil(t, acked.AcknowledgedAt)
}

func TestStore_AckRevertRestoresUnacknowledged(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	now := time.Now()

	alert := storedAlert(eventID, entity.AlertTypeExceededLimit, now)
	store.Add(alert)

	require.True(t, store.SetAcknowledged(alert.ID, true, now))
	require.Equal(t, 0, store.UnacknowledgedCount(eventID))

	// Backend rejected the acknowledgment; the optimistic flip rolls back.
	require.True(t, store.SetAcknowledged(alert.ID, false, now))
	assert.Equal(t, 1, store.UnacknowledgedCount(eventID))

	got, ok := store.Get(alert.ID)
	require.True(t, ok)
	assert.False(t, got.Acknowledged)
	assert.Nil(t, got.AcknowledgedAt)
}

func TestStore_NewerUnacknowledgedSupersedesSameType(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	participantID := uuid.New()
	now := time.Now()

	older := storedAlert(eventID, entity.AlertTypeWarning, now)
	older.ParticipantID = participantID
	newer := storedAlert(eventID, entity.AlertTypeWarning, now.Add(time.Minute))
	newer.ParticipantID = participantID

	store.Add(older)
	store.Add(newer)

	_, ok := store.Get(older.ID)
	assert.False(t, ok, "older unacknowledged alert of the same type should be superseded")
	assert.Equal(t, 1, store.UnacknowledgedCount(eventID))
}

func TestStore_AcknowledgedAlertsAreNotSuperseded(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	participantID := uuid.New()
	now := time.Now()

	older := storedAlert(eventID, entity.AlertTypeWarning, now)
	older.ParticipantID = participantID
	store.Add(older)
	require.True(t, store.SetAcknowledged(older.ID, true, now))

	newer := storedAlert(eventID, entity.AlertTypeWarning, now.Add(time.Minute))
	newer.ParticipantID = participantID
	store.Add(newer)

	_, ok := store.Get(older.ID)
	assert.True(t, ok)
	assert.Len(t, store.ListByEvent(eventID), 2)
}

func TestStore_ListByEventNewestFirst(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	now := time.Now()

	first := storedAlert(eventID, entity.AlertTypeWarning, now)
	second := storedAlert(eventID, entity.AlertTypeExceededLimit, now.Add(time.Minute))
	third := storedAlert(eventID, entity.AlertTypeReturned, now.Add(2*time.Minute))
	store.Add(first)
	store.Add(second)
	store.Add(third)
	store.Add(storedAlert(uuid.New(), entity.AlertTypeWarning, now))

	listed := store.ListByEvent(eventID)
	require.Len(t, listed, 3)
	assert.Equal(t, third.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
	assert.Equal(t, first.ID, listed[2].ID)
}

func TestStore_UnacknowledgedExceededIDs(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	now := time.Now()

	exceeded := storedAlert(eventID, entity.AlertTypeExceededLimit, now)
	store.Add(exceeded)
	store.Add(storedAlert(eventID, entity.AlertTypeWarning, now))

	acked := storedAlert(eventID, entity.AlertTypeExceededLimit, now.Add(time.Second))
	store.Add(acked)
	require.True(t, store.SetAcknowledged(acked.ID, true, now))

	ids := store.UnacknowledgedExceededIDs(eventID)
	require.Len(t, ids, 1)
	assert.Equal(t, exceeded.ID, ids[0])
}

func TestStore_RemoveForParticipant(t *testing.T) {
	store := NewStore()
	eventID := uuid.New()
	participantID := uuid.New()
	now := time.Now()

	mine := storedAlert(eventID, entity.AlertTypeWarning, now)
	mine.ParticipantID = participantID
	other := storedAlert(eventID, entity.AlertTypeWarning, now)
	store.Add(mine)
	store.Add(other)

	store.RemoveForParticipant(participantID)

	_, ok := store.Get(mine.ID)
	assert.False(t, ok)
	_, ok = store.Get(other.ID)
	assert.True(t, ok)
}
