package alert

import (
	"sort"
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// Store is the in-memory working set of alerts for the dashboard. It is not
// safe for concurrent use; the owning engine serializes access the same way
// it serializes the tracker.
type Store struct {
	alerts map[uuid.UUID]*entity.Alert
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		alerts: make(map[uuid.UUID]*entity.Alert),
	}
}

// Add inserts an alert. A newer unacknowledged alert supersedes any older
// unacknowledged alert of the same participant and type; acknowledged alerts
// are never superseded and remain independently visible.
func (s *Store) Add(alert *entity.Alert) {
	for id, existing := range s.alerts {
		if existing.Acknowledged {
			continue
		}
		if existing.ParticipantID == alert.ParticipantID && existing.Type == alert.Type {
			delete(s.alerts, id)
		}
	}

	clone := *alert
	s.alerts[alert.ID] = &clone
}

// Get returns a copy of the alert, if present.
func (s *Store) Get(alertID uuid.UUID) (entity.Alert, bool) {
	alert, ok := s.alerts[alertID]
	if !ok {
		return entity.Alert{}, false
	}

	return *alert, true
}

// SetAcknowledged flips the acknowledged flag. Both directions are needed:
// forward for the optimistic mirror, backward to revert a failed submission.
func (s *Store) SetAcknowledged(alertID uuid.UUID, acknowledged bool, at time.Time) bool {
	alert, ok := s.alerts[alertID]
	if !ok {
		return false
	}

	alert.Acknowledged = acknowledged
	if acknowledged {
		ackedAt := at
		alert.AcknowledgedAt = &ackedAt
	} else {
		alert.AcknowledgedAt = nil
	}

	return true
}

// Remove drops an alert from the working set, typically after the backend
// confirmed the acknowledgment.
func (s *Store) Remove(alertID uuid.UUID) {
	delete(s.alerts, alertID)
}

// RemoveForParticipant drops every alert belonging to a participant.
func (s *Store) RemoveForParticipant(participantID uuid.UUID) {
	for id, alert := range s.alerts {
		if alert.ParticipantID == participantID {
			delete(s.alerts, id)
		}
	}
}

// ListByEvent returns the event's alerts, newest first.
func (s *Store) ListByEvent(eventID uuid.UUID) []entity.Alert {
	out := make([]entity.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if alert.EventID == eventID {
			out = append(out, *alert)
		}
	}
	sortNewestFirst(out)

	return out
}

// Unacknowledged returns the event's unacknowledged alerts, newest first.
func (s *Store) Unacknowledged(eventID uuid.UUID) []entity.Alert {
	out := make([]entity.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if alert.EventID == eventID && !alert.Acknowledged {
			out = append(out, *alert)
		}
	}
	sortNewestFirst(out)

	return out
}

// UnacknowledgedCount feeds the badge counter.
func (s *Store) UnacknowledgedCount(eventID uuid.UUID) int {
	count := 0
	for _, alert := range s.alerts {
		if alert.EventID == eventID && !alert.Acknowledged {
			count++
		}
	}

	return count
}

// UnacknowledgedExceededIDs returns the IDs of unacknowledged exceeded-limit
// alerts for the haptic differ.
func (s *Store) UnacknowledgedExceededIDs(eventID uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if alert.EventID == eventID && !alert.Acknowledged && alert.Type == entity.AlertTypeExceededLimit {
			ids = append(ids, alert.ID)
		}
	}

	return ids
}

func sortNewestFirst(alerts []entity.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].RaisedAt.Equal(alerts[j].RaisedAt) {
			return alerts[i].ID.String() < alerts[j].ID.String()
		}

		return alerts[i].RaisedAt.After(alerts[j].RaisedAt)
	})
}
