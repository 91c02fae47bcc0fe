package presence

import (
	"testing"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func activeSnapshot(now time.Time, accumulated, maxOutside int, startedAgo time.Duration) *entity.PresenceSnapshot {
	startedAt := now.Add(-startedAgo)

	return &entity.PresenceSnapshot{
		Sample:                    entity.LocationSample{ObservedAt: now},
		IsWithinGeofence:          false,
		Severity:                  entity.SeverityOutside,
		MaxTimeOutsideSeconds:     maxOutside,
		AccumulatedOutsideSeconds: accumulated,
		TimerActive:               true,
		TimerStartedAt:            &startedAt,
		TimerReason:               entity.TimerReasonOutside,
	}
}

func TestReconciler_EstimateAdvancesFromBaseline(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(activeSnapshot(now, 840, 900, 30*time.Second))

	// One local tick after receipt: 840 accumulated + 31s since the timer
	// started leaves 29 seconds on the countdown.
	tick := now.Add(time.Second)
	assert.Equal(t, 871, r.EstimatedSeconds(tick))
	assert.Equal(t, 29, r.RemainingSeconds(tick))
}

func TestReconciler_EstimateIsMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(activeSnapshot(now, 120, 900, 0))

	prev := r.EstimatedSeconds(now)
	for i := 1; i <= 60; i++ {
		got := r.EstimatedSeconds(now.Add(time.Duration(i) * time.Second))
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestReconciler_FutureAnchorClampsToBaseline(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	// Device clock skew can put the anchor ahead of local time; negative
	// elapsed must be treated as zero, never rolling the estimate back.
	var r Reconciler
	r.Apply(activeSnapshot(now, 300, 900, -2*time.Minute))

	assert.Equal(t, 300, r.EstimatedSeconds(now))
	assert.Equal(t, 600, r.RemainingSeconds(now))
}

func TestReconciler_InactiveTimerFreezesEstimate(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(&entity.PresenceSnapshot{
		Sample:                    entity.LocationSample{ObservedAt: now},
		IsWithinGeofence:          true,
		Severity:                  entity.SeverityInside,
		MaxTimeOutsideSeconds:     900,
		AccumulatedOutsideSeconds: 45,
		TimerActive:               false,
	})

	assert.Equal(t, 45, r.EstimatedSeconds(now.Add(time.Hour)))
	assert.False(t, r.Active())
}

func TestReconciler_AbsentSuspendsPermanently(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(&entity.PresenceSnapshot{
		Sample:                    entity.LocationSample{ObservedAt: now},
		Severity:                  entity.SeverityAbsent,
		MaxTimeOutsideSeconds:     900,
		AccumulatedOutsideSeconds: 500,
		TimerActive:               true,
		MarkedAbsent:              true,
	})

	assert.True(t, r.Suspended())
	assert.False(t, r.Active())
	assert.Equal(t, 500, r.EstimatedSeconds(now.Add(time.Hour)))
}

func TestReconciler_MissingTimerStartFallsBackToObservedAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(&entity.PresenceSnapshot{
		Sample:                    entity.LocationSample{ObservedAt: now.Add(-10 * time.Second)},
		Severity:                  entity.SeverityOutside,
		MaxTimeOutsideSeconds:     900,
		AccumulatedOutsideSeconds: 0,
		TimerActive:               true,
		TimerStartedAt:            nil,
	})

	assert.Equal(t, 10, r.EstimatedSeconds(now))
}

func TestReconciler_RemainingNeverNegative(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	var r Reconciler
	r.Apply(activeSnapshot(now, 890, 900, 0))

	assert.Equal(t, 0, r.RemainingSeconds(now.Add(time.Hour)))
}
