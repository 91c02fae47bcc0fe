package presence

import (
	"perimeter/internal/domain/entity"
)

// DeriveState maps a snapshot plus the locally reconciled estimate to a
// presence state.
//
// Severity is server-authoritative (it may encode grace periods and other
// business rules), so warning/exceeded classifications are taken from the
// snapshot. The local estimate is used only for the countdown display and as
// an escalation fallback: when the last-known severity is stale and the
// estimate has crossed the limit, the participant is shown as exceeded
// without waiting for the next snapshot.
func DeriveState(snap *entity.PresenceSnapshot, estimatedSeconds int) entity.PresenceState {
	if snap.MarkedAbsent || snap.Severity == entity.SeverityAbsent {
		return entity.PresenceAbsent
	}

	// A staleness-activated timer withdraws the inside confirmation: the
	// last sample said inside, but it is too old to trust.
	if snap.IsWithinGeofence && !(snap.TimerActive && snap.TimerReason == entity.TimerReasonStale) {
		return entity.PresenceInside
	}

	switch snap.Severity {
	case entity.SeverityExceededLimit:
		return entity.PresenceExceededLimit
	case entity.SeverityWarning:
		if snap.MaxTimeOutsideSeconds > 0 && estimatedSeconds >= snap.MaxTimeOutsideSeconds {
			return entity.PresenceExceededLimit
		}

		return entity.PresenceWarning
	case entity.SeverityInside, entity.SeverityOutside:
		if snap.MaxTimeOutsideSeconds > 0 && estimatedSeconds >= snap.MaxTimeOutsideSeconds {
			return entity.PresenceExceededLimit
		}

		return entity.PresenceOutside
	default:
		// Unrecognized severity degrades to outside without escalation.
		return entity.PresenceOutside
	}
}

// Transition is one observed state change for a participant.
type Transition struct {
	Before entity.PresenceState
	After  entity.PresenceState
}

// AlertType maps a transition to the alert it should raise, if any.
// Entering warning or exceeded raises the matching alert; any
// outside-family state returning to inside raises a returned alert.
// Absent participants never alert.
func (t Transition) AlertType() (entity.AlertType, bool) {
	if t.Before == t.After {
		return "", false
	}

	switch {
	case t.After == entity.PresenceWarning:
		return entity.AlertTypeWarning, true
	case t.After == entity.PresenceExceededLimit:
		return entity.AlertTypeExceededLimit, true
	case t.After == entity.PresenceInside && t.Before.IsOutsideFamily():
		return entity.AlertTypeReturned, true
	default:
		return "", false
	}
}
