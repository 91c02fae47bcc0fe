package alert

import (
	"testing"
	"time"

	"perimeter/internal/domain/entity"
	"perimeter/internal/presence"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicator_EmitsOncePerTransition(t *testing.T) {
	dedup := NewDeduplicator()
	participantID := uuid.New()
	eventID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	transition := presence.Transition{Before: entity.PresenceOutside, After: entity.PresenceWarning}

	first := dedup.Observe(participantID, eventID, "Alice", transition, now)
	require.NotNil(t, first)
	assert.Equal(t, entity.AlertTypeWarning, first.Type)
	assert.Equal(t, participantID, first.ParticipantID)
	assert.Contains(t, first.Message, "Alice")

	// Replaying the same transition, e.g. from a redundant observer, stays
	// silent.
	assert.Nil(t, dedup.Observe(participantID, eventID, "Alice", transition, now.Add(time.Second)))
}

func TestDeduplicator_NonAlertingTransitionsAreSilent(t *testing.T) {
	dedup := NewDeduplicator()
	participantID := uuid.New()
	eventID := uuid.New()
	now := time.Now()

	assert.Nil(t, dedup.Observe(participantID, eventID, "Bob", presence.Transition{
		Before: entity.PresenceInside,
		After:  entity.PresenceOutside,
	}, now))
	assert.Nil(t, dedup.Observe(participantID, eventID, "Bob", presence.Transition{
		Before: entity.PresenceOutside,
		After:  entity.PresenceOutside,
	}, now))
}

func TestDeduplicator_NewExcursionAlertsAgain(t *testing.T) {
	dedup := NewDeduplicator()
	participantID := uuid.New()
	eventID := uuid.New()
	now := time.Now()

	warning := presence.Transition{Before: entity.PresenceOutside, After: entity.PresenceWarning}
	returned := presence.Transition{Before: entity.PresenceWarning, After: entity.PresenceInside}

	require.NotNil(t, dedup.Observe(participantID, eventID, "Carol", warning, now))
	require.NotNil(t, dedup.Observe(participantID, eventID, "Carol", returned, now.Add(time.Minute)))

	// A second excursion repeats the same transition key but is a genuinely
	// new emission because the return was emitted in between.
	second := dedup.Observe(participantID, eventID, "Carol", warning, now.Add(2*time.Minute))
	require.NotNil(t, second)
	assert.Equal(t, entity.AlertTypeWarning, second.Type)
}

func TestDeduplicator_ParticipantsAreIndependent(t *testing.T) {
	dedup := NewDeduplicator()
	eventID := uuid.New()
	now := time.Now()

	transition := presence.Transition{Before: entity.PresenceWarning, After: entity.PresenceExceededLimit}

	assert.NotNil(t, dedup.Observe(uuid.New(), eventID, "Dave", transition, now))
	assert.NotNil(t, dedup.Observe(uuid.New(), eventID, "Erin", transition, now))
}

func TestDeduplicator_ResetForgetsHistory(t *testing.T) {
	dedup := NewDeduplicator()
	participantID := uuid.New()
	eventID := uuid.New()
	now := time.Now()

	transition := presence.Transition{Before: entity.PresenceOutside, After: entity.PresenceWarning}
	require.NotNil(t, dedup.Observe(participantID, eventID, "Faye", transition, now))

	dedup.Reset(participantID)
	assert.NotNil(t, dedup.Observe(participantID, eventID, "Faye", transition, now.Add(time.Second)))
}
