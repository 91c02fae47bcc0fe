package entity

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the server-authoritative classification of a participant's
// containment state. It may encode business rules beyond elapsed time
// (grace periods), so clients treat it as authoritative.
type Severity string

const (
	SeverityInside        Severity = "inside"
	SeverityOutside       Severity = "outside"
	SeverityWarning       Severity = "warning"
	SeverityExceededLimit Severity = "exceeded_limit"
	SeverityAbsent        Severity = "absent"
)

// ParseSeverity maps a wire value to a Severity. Unknown values degrade to
// the most conservative non-alerting classification instead of failing.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityInside, SeverityOutside, SeverityWarning, SeverityExceededLimit, SeverityAbsent:
		return Severity(s)
	default:
		return SeverityOutside
	}
}

// TimerReason records why an outside timer is running.
type TimerReason string

const (
	TimerReasonOutside TimerReason = "outside"
	TimerReasonStale   TimerReason = "stale"
)

// LocationSample is one device location observation. Immutable once created;
// superseded by newer samples.
type LocationSample struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	ObservedAt     time.Time `json:"observed_at"`
}

// PresenceSnapshot is one authoritative, timestamped report of a
// participant's containment and timer state. The engine treats each snapshot
// as a fresh baseline and never mutates it.
type PresenceSnapshot struct {
	ID                        uuid.UUID      `json:"id"`
	ParticipantID             uuid.UUID      `json:"participant_id"`
	EventID                   uuid.UUID      `json:"event_id"`
	Sample                    LocationSample `json:"sample"`
	IsWithinGeofence          bool           `json:"is_within_geofence"`
	DistanceFromCenterMeters  float64        `json:"distance_from_center_meters"`
	Severity                  Severity       `json:"severity"`
	MaxTimeOutsideSeconds     int            `json:"max_time_outside_seconds"`
	AccumulatedOutsideSeconds int            `json:"accumulated_outside_seconds"` // As of Sample.ObservedAt.
	TimerActive               bool           `json:"timer_active"`
	TimerStartedAt            *time.Time     `json:"timer_started_at,omitempty"`
	TimerReason               TimerReason    `json:"timer_reason,omitempty"`
	MarkedAbsent              bool           `json:"marked_absent"`
	CreatedAt                 time.Time      `json:"created_at"`
}

// TimerAnchor returns the instant local estimation advances from. A missing
// TimerStartedAt while the timer is active falls back to the sample time.
func (s *PresenceSnapshot) TimerAnchor() time.Time {
	if s.TimerStartedAt != nil {
		return *s.TimerStartedAt
	}

	return s.Sample.ObservedAt
}

// PresenceState is the engine-derived display state for a participant.
// Recomputed on every snapshot and local tick; never persisted.
type PresenceState string

const (
	PresenceInside        PresenceState = "inside"
	PresenceOutside       PresenceState = "outside"
	PresenceWarning       PresenceState = "warning"
	PresenceExceededLimit PresenceState = "exceeded_limit"
	PresenceAbsent        PresenceState = "absent"
)

// IsOutsideFamily reports whether the state belongs to the outside family
// (outside, warning, exceeded limit); a transition from any of these back to
// inside is reported as a return.
func (p PresenceState) IsOutsideFamily() bool {
	return p == PresenceOutside || p == PresenceWarning || p == PresenceExceededLimit
}
