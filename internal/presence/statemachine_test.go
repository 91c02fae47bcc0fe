package presence

import (
	"testing"

	"perimeter/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func snapshotFor(severity entity.Severity, within, absent bool, maxOutside int) *entity.PresenceSnapshot {
	return &entity.PresenceSnapshot{
		IsWithinGeofence:      within,
		Severity:              severity,
		MaxTimeOutsideSeconds: maxOutside,
		MarkedAbsent:          absent,
	}
}

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name      string
		snap      *entity.PresenceSnapshot
		estimated int
		want      entity.PresenceState
	}{
		{
			name: "inside wins regardless of estimate",
			snap: snapshotFor(entity.SeverityInside, true, false, 900),
			// Stale accumulated seconds from an earlier excursion.
			estimated: 950,
			want:      entity.PresenceInside,
		},
		{
			name:      "outside below limit",
			snap:      snapshotFor(entity.SeverityOutside, false, false, 900),
			estimated: 100,
			want:      entity.PresenceOutside,
		},
		{
			name:      "server warning is authoritative",
			snap:      snapshotFor(entity.SeverityWarning, false, false, 900),
			estimated: 750,
			want:      entity.PresenceWarning,
		},
		{
			name:      "server exceeded is authoritative",
			snap:      snapshotFor(entity.SeverityExceededLimit, false, false, 900),
			estimated: 0,
			want:      entity.PresenceExceededLimit,
		},
		{
			name: "stale warning escalates when estimate crosses limit",
			snap: snapshotFor(entity.SeverityWarning, false, false, 900),
			// The backend still says warning but local reconciliation has
			// crossed the allowed time.
			estimated: 900,
			want:      entity.PresenceExceededLimit,
		},
		{
			name:      "outside escalates when estimate crosses limit",
			snap:      snapshotFor(entity.SeverityOutside, false, false, 900),
			estimated: 901,
			want:      entity.PresenceExceededLimit,
		},
		{
			name:      "absent flag is terminal",
			snap:      snapshotFor(entity.SeverityAbsent, false, true, 900),
			estimated: 10000,
			want:      entity.PresenceAbsent,
		},
		{
			name:      "unlimited events never escalate locally",
			snap:      snapshotFor(entity.SeverityOutside, false, false, 0),
			estimated: 100000,
			want:      entity.PresenceOutside,
		},
		{
			name: "unrecognized severity degrades to outside",
			snap: snapshotFor(entity.Severity("escorted"), false, false, 900),
			// Degraded states never escalate, no matter the estimate.
			estimated: 5000,
			want:      entity.PresenceOutside,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.snap, tt.estimated))
		})
	}
}

func TestDeriveState_StaleTimerWithdrawsInside(t *testing.T) {
	snap := snapshotFor(entity.SeverityInside, true, false, 900)
	snap.TimerActive = true
	snap.TimerReason = entity.TimerReasonStale

	// The last sample said inside, but it is too old to trust.
	assert.Equal(t, entity.PresenceOutside, DeriveState(snap, 60))
	assert.Equal(t, entity.PresenceExceededLimit, DeriveState(snap, 900))

	// An ordinary outside timer does not override a fresh inside sample.
	snap.TimerReason = entity.TimerReasonOutside
	assert.Equal(t, entity.PresenceInside, DeriveState(snap, 60))
}

func TestParseSeverity_UnknownDegradesToOutside(t *testing.T) {
	assert.Equal(t, entity.SeverityOutside, entity.ParseSeverity("quarantined"))
	assert.Equal(t, entity.SeverityOutside, entity.ParseSeverity(""))
	assert.Equal(t, entity.SeverityWarning, entity.ParseSeverity("warning"))
}

func TestTransition_AlertType(t *testing.T) {
	tests := []struct {
		name      string
		before    entity.PresenceState
		after     entity.PresenceState
		wantType  entity.AlertType
		wantAlert bool
	}{
		{name: "entering warning", before: entity.PresenceOutside, after: entity.PresenceWarning, wantType: entity.AlertTypeWarning, wantAlert: true},
		{name: "entering exceeded", before: entity.PresenceWarning, after: entity.PresenceExceededLimit, wantType: entity.AlertTypeExceededLimit, wantAlert: true},
		{name: "returning from outside", before: entity.PresenceOutside, after: entity.PresenceInside, wantType: entity.AlertTypeReturned, wantAlert: true},
		{name: "returning from exceeded", before: entity.PresenceExceededLimit, after: entity.PresenceInside, wantType: entity.AlertTypeReturned, wantAlert: true},
		{name: "no change", before: entity.PresenceOutside, after: entity.PresenceOutside, wantAlert: false},
		{name: "inside to outside is silent", before: entity.PresenceInside, after: entity.PresenceOutside, wantAlert: false},
		{name: "first sight inside is silent", before: "", after: entity.PresenceInside, wantAlert: false},
		{name: "first sight warning alerts", before: "", after: entity.PresenceWarning, wantType: entity.AlertTypeWarning, wantAlert: true},
		{name: "going absent is silent", before: entity.PresenceOutside, after: entity.PresenceAbsent, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alertType, ok := Transition{Before: tt.before, After: tt.after}.AlertType()
			assert.Equal(t, tt.wantAlert, ok)
			if tt.wantAlert {
				assert.Equal(t, tt.wantType, alertType)
			}
		})
	}
}

func TestGrader_Grade(t *testing.T) {
	grader := NewGrader(0.8)

	assert.Equal(t, entity.SeverityInside, grader.Grade(true, false, 1000, 900))
	assert.Equal(t, entity.SeverityOutside, grader.Grade(false, false, 100, 900))
	assert.Equal(t, entity.SeverityWarning, grader.Grade(false, false, 720, 900))
	assert.Equal(t, entity.SeverityExceededLimit, grader.Grade(false, false, 900, 900))
	assert.Equal(t, entity.SeverityAbsent, grader.Grade(false, true, 0, 900))
}
