package presence

import (
	"time"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
)

// DisplayState is the pull-based view of one participant, safe to compute
// on every tick.
type DisplayState struct {
	ParticipantID           uuid.UUID            `json:"participant_id"`
	EventID                 uuid.UUID            `json:"event_id"`
	State                   entity.PresenceState `json:"state"`
	RemainingSeconds        int                  `json:"remaining_seconds"`
	EstimatedOutsideSeconds int                  `json:"estimated_outside_seconds"`
	TimerActive             bool                 `json:"timer_active"`
	Staleness               Staleness            `json:"staleness"`
	IsStale                 bool                 `json:"is_stale"`
	LastObservedAt          time.Time            `json:"last_observed_at"`
}

// ApplyResult describes the outcome of feeding one snapshot to the tracker.
type ApplyResult struct {
	// Applied is false when the snapshot was discarded as out of order.
	Applied    bool
	Transition Transition
}

// Changed reports whether the applied snapshot moved the participant to a
// different presence state.
func (r ApplyResult) Changed() bool {
	return r.Applied && r.Transition.Before != r.Transition.After
}

type trackedParticipant struct {
	snapshot   *entity.PresenceSnapshot
	reconciler Reconciler
	lastState  entity.PresenceState
}

// Tracker holds the latest authoritative snapshot and reconciled timer per
// participant and derives display state from them. It performs no locking
// of its own; the owning engine serializes all access.
type Tracker struct {
	classifier   *StalenessClassifier
	participants map[uuid.UUID]*trackedParticipant
}

// NewTracker creates an empty tracker.
func NewTracker(classifier *StalenessClassifier) *Tracker {
	return &Tracker{
		classifier:   classifier,
		participants: make(map[uuid.UUID]*trackedParticipant),
	}
}

// Apply feeds one authoritative snapshot. Snapshots must arrive in strictly
// increasing ObservedAt order per participant; an older or equal snapshot is
// discarded so the countdown never jumps backward.
func (t *Tracker) Apply(snap *entity.PresenceSnapshot, now time.Time) ApplyResult {
	tracked, ok := t.participants[snap.ParticipantID]
	if !ok {
		tracked = &trackedParticipant{}
		t.participants[snap.ParticipantID] = tracked
	}

	if tracked.snapshot != nil && !snap.Sample.ObservedAt.After(tracked.snapshot.Sample.ObservedAt) {
		return ApplyResult{Applied: false}
	}

	before := tracked.lastState
	tracked.snapshot = snap
	tracked.reconciler.Apply(snap)
	after := DeriveState(snap, tracked.reconciler.EstimatedSeconds(now))
	tracked.lastState = after

	return ApplyResult{
		Applied:    true,
		Transition: Transition{Before: before, After: after},
	}
}

// Reevaluate re-derives a participant's state at local time now without a
// new snapshot. This is how the estimate crossing the limit escalates a
// stale warning to exceeded between snapshot refreshes.
func (t *Tracker) Reevaluate(participantID uuid.UUID, now time.Time) (Transition, bool) {
	tracked, ok := t.participants[participantID]
	if !ok || tracked.snapshot == nil {
		return Transition{}, false
	}

	before := tracked.lastState
	after := DeriveState(tracked.snapshot, tracked.reconciler.EstimatedSeconds(now))
	tracked.lastState = after

	return Transition{Before: before, After: after}, before != after
}

// ActivateStaleTimers starts the staleness timer for every participant whose
// telemetry crossed the stale boundary without a newer sample and no timer
// already running. The timer anchors at the instant the sample went stale,
// so the estimate counts the dark time from there. Returns the participants
// whose state changed. A genuinely newer sample supersedes the synthesized
// timer as usual.
func (t *Tracker) ActivateStaleTimers(now time.Time) map[uuid.UUID]Transition {
	changed := make(map[uuid.UUID]Transition)
	for id, tracked := range t.participants {
		snap := tracked.snapshot
		if snap == nil || snap.TimerActive || snap.MarkedAbsent {
			continue
		}
		if !t.classifier.Classify(snap.Sample.ObservedAt, now).IsStale() {
			continue
		}

		stale := *snap
		stale.ID = uuid.New()
		anchor := snap.Sample.ObservedAt.Add(t.classifier.staleAfter)
		stale.TimerActive = true
		stale.TimerStartedAt = &anchor
		stale.TimerReason = entity.TimerReasonStale

		tracked.snapshot = &stale
		tracked.reconciler.Apply(&stale)

		before := tracked.lastState
		after := DeriveState(&stale, tracked.reconciler.EstimatedSeconds(now))
		tracked.lastState = after
		if before != after {
			changed[id] = Transition{Before: before, After: after}
		}
	}

	return changed
}

// ReevaluateAll re-derives every tracked participant and returns the
// participants whose state changed.
func (t *Tracker) ReevaluateAll(now time.Time) map[uuid.UUID]Transition {
	changed := make(map[uuid.UUID]Transition)
	for id := range t.participants {
		if transition, ok := t.Reevaluate(id, now); ok {
			changed[id] = transition
		}
	}

	return changed
}

// DisplayState returns the derived view for one participant.
func (t *Tracker) DisplayState(participantID uuid.UUID, now time.Time) (DisplayState, bool) {
	tracked, ok := t.participants[participantID]
	if !ok || tracked.snapshot == nil {
		return DisplayState{}, false
	}

	snap := tracked.snapshot
	staleness := t.classifier.Classify(snap.Sample.ObservedAt, now)
	estimated := tracked.reconciler.EstimatedSeconds(now)

	return DisplayState{
		ParticipantID:           snap.ParticipantID,
		EventID:                 snap.EventID,
		State:                   DeriveState(snap, estimated),
		RemainingSeconds:        tracked.reconciler.RemainingSeconds(now),
		EstimatedOutsideSeconds: estimated,
		TimerActive:             tracked.reconciler.Active(),
		Staleness:               staleness,
		IsStale:                 staleness.IsStale(),
		LastObservedAt:          snap.Sample.ObservedAt,
	}, true
}

// EventStates returns the derived view for every tracked participant of an
// event.
func (t *Tracker) EventStates(eventID uuid.UUID, now time.Time) []DisplayState {
	states := make([]DisplayState, 0, len(t.participants))
	for id, tracked := range t.participants {
		if tracked.snapshot == nil || tracked.snapshot.EventID != eventID {
			continue
		}
		if state, ok := t.DisplayState(id, now); ok {
			states = append(states, state)
		}
	}

	return states
}

// Snapshot returns the latest applied snapshot for a participant.
func (t *Tracker) Snapshot(participantID uuid.UUID) (*entity.PresenceSnapshot, bool) {
	tracked, ok := t.participants[participantID]
	if !ok || tracked.snapshot == nil {
		return nil, false
	}

	return tracked.snapshot, true
}

// Remove discards all tracked state for a participant, typically when the
// participant or event view is torn down.
func (t *Tracker) Remove(participantID uuid.UUID) {
	delete(t.participants, participantID)
}
