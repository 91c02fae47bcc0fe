package presence

import (
	"testing"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker(NewStalenessClassifier(3*time.Minute, 10*time.Minute))
}

func trackerSnapshot(participantID, eventID uuid.UUID, observedAt time.Time, severity entity.Severity, within bool) *entity.PresenceSnapshot {
	return &entity.PresenceSnapshot{
		ID:                    uuid.New(),
		ParticipantID:         participantID,
		EventID:               eventID,
		Sample:                entity.LocationSample{Latitude: 25.03, Longitude: 121.56, ObservedAt: observedAt},
		IsWithinGeofence:      within,
		Severity:              severity,
		MaxTimeOutsideSeconds: 900,
	}
}

func TestTracker_OutOfOrderSnapshotDiscarded(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	eventID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	newer := trackerSnapshot(participantID, eventID, now.Add(10*time.Second), entity.SeverityOutside, false)
	newer.AccumulatedOutsideSeconds = 60
	result := tracker.Apply(newer, now.Add(10*time.Second))
	require.True(t, result.Applied)

	older := trackerSnapshot(participantID, eventID, now.Add(5*time.Second), entity.SeverityInside, true)
	result = tracker.Apply(older, now.Add(11*time.Second))
	assert.False(t, result.Applied)

	// Visible state equals the state after the newer snapshot alone.
	state, ok := tracker.DisplayState(participantID, now.Add(11*time.Second))
	require.True(t, ok)
	assert.Equal(t, entity.PresenceOutside, state.State)
	assert.Equal(t, 60, state.EstimatedOutsideSeconds)
}

func TestTracker_SameSnapshotAppliedTwiceIsIdempotent(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	snap := trackerSnapshot(participantID, uuid.New(), now, entity.SeverityWarning, false)

	first := tracker.Apply(snap, now)
	require.True(t, first.Applied)
	assert.True(t, first.Changed())

	second := tracker.Apply(snap, now)
	assert.False(t, second.Applied)
	assert.False(t, second.Changed())
}

func TestTracker_TransitionSequence(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	eventID := uuid.New()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	// Inside -> Outside -> Outside -> Warning -> Warning -> Inside must
	// produce exactly two alert-worthy transitions: warning and returned.
	sequence := []struct {
		severity entity.Severity
		within   bool
	}{
		{entity.SeverityInside, true},
		{entity.SeverityOutside, false},
		{entity.SeverityOutside, false},
		{entity.SeverityWarning, false},
		{entity.SeverityWarning, false},
		{entity.SeverityInside, true},
	}

	var alerts []entity.AlertType
	for i, step := range sequence {
		at := base.Add(time.Duration(i) * 30 * time.Second)
		result := tracker.Apply(trackerSnapshot(participantID, eventID, at, step.severity, step.within), at)
		require.True(t, result.Applied)
		if alertType, ok := result.Transition.AlertType(); ok {
			alerts = append(alerts, alertType)
		}
	}

	assert.Equal(t, []entity.AlertType{entity.AlertTypeWarning, entity.AlertTypeReturned}, alerts)
}

func TestTracker_ReevaluateEscalatesWithoutSnapshot(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	snap := trackerSnapshot(participantID, uuid.New(), now, entity.SeverityWarning, false)
	snap.AccumulatedOutsideSeconds = 880
	snap.TimerActive = true
	startedAt := now
	snap.TimerStartedAt = &startedAt

	result := tracker.Apply(snap, now)
	require.True(t, result.Applied)
	assert.Equal(t, entity.PresenceWarning, result.Transition.After)

	// 30 local seconds later the estimate crosses 900 with no new snapshot.
	transition, changed := tracker.Reevaluate(participantID, now.Add(30*time.Second))
	require.True(t, changed)
	assert.Equal(t, entity.PresenceWarning, transition.Before)
	assert.Equal(t, entity.PresenceExceededLimit, transition.After)

	alertType, ok := transition.AlertType()
	require.True(t, ok)
	assert.Equal(t, entity.AlertTypeExceededLimit, alertType)
}

func TestTracker_AbsentParticipantNeverEscalates(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	snap := trackerSnapshot(participantID, uuid.New(), now, entity.SeverityAbsent, false)
	snap.AccumulatedOutsideSeconds = 880
	snap.TimerActive = true
	snap.MarkedAbsent = true

	result := tracker.Apply(snap, now)
	require.True(t, result.Applied)
	assert.Equal(t, entity.PresenceAbsent, result.Transition.After)

	// Ticks never change the countdown and never raise exceeded.
	first, ok := tracker.DisplayState(participantID, now)
	require.True(t, ok)
	for i := 1; i <= 120; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		_, changed := tracker.Reevaluate(participantID, at)
		assert.False(t, changed)

		state, ok := tracker.DisplayState(participantID, at)
		require.True(t, ok)
		assert.Equal(t, first.RemainingSeconds, state.RemainingSeconds)
		assert.Equal(t, entity.PresenceAbsent, state.State)
	}
}

func TestTracker_StaleTelemetryStartsTimer(t *testing.T) {
	tracker := newTestTracker()
	quietID := uuid.New()
	freshID := uuid.New()
	eventID := uuid.New()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	tracker.Apply(trackerSnapshot(quietID, eventID, base, entity.SeverityInside, true), base)
	tracker.Apply(trackerSnapshot(freshID, eventID, base.Add(3*time.Minute), entity.SeverityInside, true), base.Add(3*time.Minute))

	// Four minutes of silence crosses the 3-minute boundary for the quiet
	// participant only.
	at := base.Add(4 * time.Minute)
	changed := tracker.ActivateStaleTimers(at)
	require.Len(t, changed, 1)
	assert.Equal(t, entity.PresenceInside, changed[quietID].Before)
	assert.Equal(t, entity.PresenceOutside, changed[quietID].After)

	snap, ok := tracker.Snapshot(quietID)
	require.True(t, ok)
	assert.True(t, snap.TimerActive)
	assert.Equal(t, entity.TimerReasonStale, snap.TimerReason)

	// The timer anchors at the stale boundary, so one minute of dark time
	// has accumulated by now.
	state, ok := tracker.DisplayState(quietID, at)
	require.True(t, ok)
	assert.Equal(t, 60, state.EstimatedOutsideSeconds)
	assert.Equal(t, 840, state.RemainingSeconds)

	// Running timers are left alone on the next pass.
	assert.Empty(t, tracker.ActivateStaleTimers(at.Add(time.Second)))

	// A genuinely newer sample supersedes the synthesized timer.
	result := tracker.Apply(trackerSnapshot(quietID, eventID, at.Add(10*time.Second), entity.SeverityInside, true), at.Add(10*time.Second))
	require.True(t, result.Applied)
	assert.Equal(t, entity.PresenceInside, result.Transition.After)
}

func TestTracker_StaleTimerSkipsAbsentParticipants(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	snap := trackerSnapshot(participantID, uuid.New(), base, entity.SeverityAbsent, false)
	snap.MarkedAbsent = true
	tracker.Apply(snap, base)

	assert.Empty(t, tracker.ActivateStaleTimers(base.Add(time.Hour)))
}

func TestTracker_DisplayStateStaleness(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	snap := trackerSnapshot(participantID, uuid.New(), now, entity.SeverityOutside, false)
	tracker.Apply(snap, now)

	state, ok := tracker.DisplayState(participantID, now.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, StalenessFresh, state.Staleness)
	assert.False(t, state.IsStale)

	// Staleness qualifies the display but does not flip the state.
	state, ok = tracker.DisplayState(participantID, now.Add(12*time.Minute))
	require.True(t, ok)
	assert.Equal(t, StalenessVeryStale, state.Staleness)
	assert.True(t, state.IsStale)
	assert.Equal(t, entity.PresenceOutside, state.State)
}

func TestTracker_EventStatesFiltersByEvent(t *testing.T) {
	tracker := newTestTracker()
	eventA := uuid.New()
	eventB := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	tracker.Apply(trackerSnapshot(uuid.New(), eventA, now, entity.SeverityInside, true), now)
	tracker.Apply(trackerSnapshot(uuid.New(), eventA, now, entity.SeverityOutside, false), now)
	tracker.Apply(trackerSnapshot(uuid.New(), eventB, now, entity.SeverityInside, true), now)

	assert.Len(t, tracker.EventStates(eventA, now), 2)
	assert.Len(t, tracker.EventStates(eventB, now), 1)
}

func TestTracker_RemoveDropsParticipant(t *testing.T) {
	tracker := newTestTracker()
	participantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	tracker.Apply(trackerSnapshot(participantID, uuid.New(), now, entity.SeverityInside, true), now)
	tracker.Remove(participantID)

	_, ok := tracker.DisplayState(participantID, now)
	assert.False(t, ok)
}
