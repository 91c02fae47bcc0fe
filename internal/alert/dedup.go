// Package alert converts presence transitions into alerts exactly once and
// fans them out to the display and notification channels. The deduplicator
// and store are serialized by the owning engine; the fanout carries its own
// lock because delivery happens outside the engine's critical section.
package alert

import (
	"fmt"
	"time"

	"perimeter/internal/domain/entity"
	"perimeter/internal/presence"

	"github.com/google/uuid"
)

// Deduplicator emits at most one alert per distinct presence transition per
// participant, no matter how many surfaces observe the stream.
type Deduplicator struct {
	lastEmitted map[uuid.UUID]presence.Transition
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		lastEmitted: make(map[uuid.UUID]presence.Transition),
	}
}

// Observe inspects one transition and returns a freshly created alert when
// the transition qualifies and differs from the last one emitted for the
// participant. Repeated snapshots reporting the same state never re-alert.
func (d *Deduplicator) Observe(participantID, eventID uuid.UUID, displayName string, transition presence.Transition, now time.Time) *entity.Alert {
	alertType, ok := transition.AlertType()
	if !ok {
		return nil
	}

	if last, seen := d.lastEmitted[participantID]; seen && last == transition {
		return nil
	}
	d.lastEmitted[participantID] = transition

	return &entity.Alert{
		ID:            uuid.New(),
		ParticipantID: participantID,
		EventID:       eventID,
		Type:          alertType,
		Message:       alertMessage(displayName, alertType),
		RaisedAt:      now,
	}
}

// Reset clears the transition memory for a participant, typically when the
// participant's view is torn down.
func (d *Deduplicator) Reset(participantID uuid.UUID) {
	delete(d.lastEmitted, participantID)
}

func alertMessage(displayName string, alertType entity.AlertType) string {
	if displayName == "" {
		displayName = "Participant"
	}

	switch alertType {
	case entity.AlertTypeWarning:
		return fmt.Sprintf("%s is running out of time outside the event perimeter", displayName)
	case entity.AlertTypeExceededLimit:
		return fmt.Sprintf("%s has exceeded the allowed time outside the event perimeter", displayName)
	case entity.AlertTypeReturned:
		return fmt.Sprintf("%s has returned inside the event perimeter", displayName)
	default:
		return fmt.Sprintf("%s presence changed", displayName)
	}
}
