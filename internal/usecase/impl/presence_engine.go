// Package impl contains the use case implementations.
package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"perimeter/config"
	"perimeter/internal/alert"
	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/domain/service"
	"perimeter/internal/geo"
	"perimeter/internal/presence"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// presenceEngine is the single authority over tracked presence state. One
// mutex serializes the tracker, deduplicator, and alert store so every
// snapshot application is atomic: timer, state, and alerts always agree.
// Alert delivery and persistence happen outside the critical section.
type presenceEngine struct {
	cfg    *config.Config
	logger *slog.Logger

	mu      sync.Mutex
	tracker *presence.Tracker
	dedup   *alert.Deduplicator
	store   *alert.Store
	grader  *presence.Grader
	names   map[uuid.UUID]string
	haptics map[uuid.UUID]*alert.HapticDiffer
	subs    map[uuid.UUID]map[uint64]chan presence.DisplayState
	nextSub uint64

	fanout *alert.Fanout

	eventRepo       repository.EventRepository
	participantRepo repository.ParticipantRepository
	snapshotRepo    repository.SnapshotRepository
	alertRepo       repository.AlertRepository
	publisher       service.EventPublisher

	ackGroup singleflight.Group
	now      func() time.Time
}

// NewPresenceEngine creates the presence engine. The returned value
// implements both PresenceUsecase and AlertUsecase; both views share the
// same state.
func NewPresenceEngine(
	cfg *config.Config,
	logger *slog.Logger,
	eventRepo repository.EventRepository,
	participantRepo repository.ParticipantRepository,
	snapshotRepo repository.SnapshotRepository,
	alertRepo repository.AlertRepository,
	publisher service.EventPublisher,
) (usecase.PresenceUsecase, usecase.AlertUsecase) {
	engine := &presenceEngine{
		cfg:             cfg,
		logger:          logger,
		tracker:         presence.NewTracker(presence.NewStalenessClassifier(cfg.Presence.StaleAfter, cfg.Presence.VeryStaleAfter)),
		dedup:           alert.NewDeduplicator(),
		store:           alert.NewStore(),
		grader:          presence.NewGrader(cfg.Presence.WarningRatio),
		names:           make(map[uuid.UUID]string),
		haptics:         make(map[uuid.UUID]*alert.HapticDiffer),
		subs:            make(map[uuid.UUID]map[uint64]chan presence.DisplayState),
		fanout:          alert.NewFanout(logger),
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		snapshotRepo:    snapshotRepo,
		alertRepo:       alertRepo,
		publisher:       publisher,
		now:             time.Now,
	}
	engine.registerChannels()

	return engine, engine
}

// registerChannels wires the built-in delivery channels: the structured
// banner line operators watch, and the Pub/Sub publication the push worker
// consumes.
func (e *presenceEngine) registerChannels() {
	e.fanout.Register(alert.ChannelFunc{
		ChannelName: "banner",
		Fn: func(_ context.Context, a *entity.Alert) error {
			e.logger.Warn("presence alert",
				slog.String("alert_id", a.ID.String()),
				slog.String("participant_id", a.ParticipantID.String()),
				slog.String("event_id", a.EventID.String()),
				slog.String("type", string(a.Type)),
				slog.String("message", a.Message))

			return nil
		},
	})
	e.fanout.Register(alert.ChannelFunc{
		ChannelName: "push",
		Fn: func(ctx context.Context, a *entity.Alert) error {
			if e.publisher == nil {
				return alert.ErrChannelUnavailable
			}

			return e.publisher.PublishAlertEvent(ctx, &service.AlertEvent{
				AlertID:          a.ID.String(),
				EventID:          a.EventID.String(),
				ParticipantID:    a.ParticipantID.String(),
				ParticipantName:  e.displayName(a.ParticipantID),
				AlertType:        string(a.Type),
				Message:          a.Message,
				RemainingSeconds: e.remainingSeconds(a.ParticipantID),
				RaisedAt:         a.RaisedAt.Unix(),
			})
		},
	})
}

func (e *presenceEngine) displayName(participantID uuid.UUID) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.names[participantID]
}

func (e *presenceEngine) remainingSeconds(participantID uuid.UUID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.tracker.DisplayState(participantID, e.now())
	if !ok {
		return 0
	}

	return state.RemainingSeconds
}

// Subscribe registers a watcher for one participant. Slow receivers skip
// intermediate changes rather than block the engine.
func (e *presenceEngine) Subscribe(_ context.Context, participantID uuid.UUID) (<-chan presence.DisplayState, func()) {
	ch := make(chan presence.DisplayState, 8)

	e.mu.Lock()
	e.nextSub++
	id := e.nextSub
	if e.subs[participantID] == nil {
		e.subs[participantID] = make(map[uint64]chan presence.DisplayState)
	}
	e.subs[participantID][id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		chans, ok := e.subs[participantID]
		if !ok {
			return
		}
		if _, live := chans[id]; !live {
			return
		}
		delete(chans, id)
		close(ch)
		if len(chans) == 0 {
			delete(e.subs, participantID)
		}
	}

	return ch, cancel
}

// notifyLocked pushes the participant's fresh display state to its watchers.
// Caller holds the engine lock.
func (e *presenceEngine) notifyLocked(participantID uuid.UUID, now time.Time) {
	chans := e.subs[participantID]
	if len(chans) == 0 {
		return
	}

	state, ok := e.tracker.DisplayState(participantID, now)
	if !ok {
		return
	}

	for _, ch := range chans {
		select {
		case ch <- state:
		default:
		}
	}
}

// IngestSample grades one raw location sample and feeds it through the
// tracker, the deduplicator, and the alert store in a single atomic step.
func (e *presenceEngine) IngestSample(ctx context.Context, eventID, participantID uuid.UUID, input *usecase.IngestSampleInput) (*presence.DisplayState, error) {
	participant, err := e.participantRepo.FindParticipantByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	if participant.EventID != eventID {
		return nil, repository.ErrParticipantNotFound
	}

	event, err := e.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	now := e.now()
	observedAt := input.ObservedAt
	if observedAt.IsZero() {
		observedAt = now
	}

	distance := geo.DistanceMeters(
		event.Geofence.CenterLatitude, event.Geofence.CenterLongitude,
		input.Latitude, input.Longitude,
	)
	within := geo.Contains(event.Geofence, input.Latitude, input.Longitude)

	e.mu.Lock()
	e.names[participantID] = participant.DisplayName

	snap := e.buildSnapshot(event, participant, input, observedAt, now, within, distance)
	result := e.tracker.Apply(snap, now)
	if !result.Applied {
		// Out-of-order or duplicate sample: keep the newer state.
		state, _ := e.tracker.DisplayState(participantID, now)
		e.mu.Unlock()

		return &state, nil
	}

	raised := e.collectAlert(participantID, eventID, participant.DisplayName, result.Transition, now)
	if result.Changed() {
		e.notifyLocked(participantID, now)
	}
	state, _ := e.tracker.DisplayState(participantID, now)
	e.mu.Unlock()

	if err := e.snapshotRepo.CreateSnapshot(ctx, snap); err != nil {
		// Presence tracking keeps working when history persistence degrades.
		e.logger.Error("failed to persist presence snapshot",
			slog.String("participant_id", participantID.String()),
			slog.String("error", err.Error()))
	}

	e.dispatch(ctx, raised)
	e.observeHaptics(eventID)

	return &state, nil
}

// buildSnapshot rolls the previous timer forward to the new sample time and
// grades the result. Caller holds the engine lock.
func (e *presenceEngine) buildSnapshot(
	event *entity.Event,
	participant *entity.Participant,
	input *usecase.IngestSampleInput,
	observedAt, now time.Time,
	within bool,
	distance float64,
) *entity.PresenceSnapshot {
	snap := &entity.PresenceSnapshot{
		ID:            uuid.New(),
		ParticipantID: participant.ID,
		EventID:       event.ID,
		Sample: entity.LocationSample{
			Latitude:       input.Latitude,
			Longitude:      input.Longitude,
			AccuracyMeters: input.AccuracyMeters,
			ObservedAt:     observedAt,
		},
		IsWithinGeofence:         within,
		DistanceFromCenterMeters: distance,
		MaxTimeOutsideSeconds:    event.MaxTimeOutsideSeconds,
		MarkedAbsent:             participant.MarkedAbsent,
		CreatedAt:                now,
	}

	accumulated := 0
	prev, hasPrev := e.tracker.Snapshot(participant.ID)
	if hasPrev {
		accumulated = prev.AccumulatedOutsideSeconds
		if prev.TimerActive && !prev.MarkedAbsent {
			elapsed := int(observedAt.Sub(prev.TimerAnchor()).Seconds())
			if elapsed > 0 {
				accumulated += elapsed
			}
		}
	}

	switch {
	case participant.MarkedAbsent:
		// Suspended: the accumulated total is frozen as of the last sample.
		if hasPrev {
			accumulated = prev.AccumulatedOutsideSeconds
		}
		snap.AccumulatedOutsideSeconds = accumulated
	case within:
		// Returning inside resets the excursion.
		snap.AccumulatedOutsideSeconds = 0
	default:
		snap.AccumulatedOutsideSeconds = accumulated
		snap.TimerActive = true
		anchor := observedAt
		snap.TimerStartedAt = &anchor
		snap.TimerReason = entity.TimerReasonOutside
	}

	snap.Severity = e.grader.Grade(within, participant.MarkedAbsent, snap.AccumulatedOutsideSeconds, event.MaxTimeOutsideSeconds)

	return snap
}

// collectAlert runs the deduplicator over a transition and stages the
// resulting alert. Caller holds the engine lock.
func (e *presenceEngine) collectAlert(participantID, eventID uuid.UUID, displayName string, transition presence.Transition, now time.Time) []*entity.Alert {
	raised := e.dedup.Observe(participantID, eventID, displayName, transition, now)
	if raised == nil {
		return nil
	}
	e.store.Add(raised)

	return []*entity.Alert{raised}
}

// dispatch persists and fans out staged alerts outside the engine lock.
func (e *presenceEngine) dispatch(ctx context.Context, raised []*entity.Alert) {
	for _, a := range raised {
		if err := e.alertRepo.CreateAlert(ctx, a); err != nil {
			e.logger.Error("failed to persist alert",
				slog.String("alert_id", a.ID.String()),
				slog.String("error", err.Error()))
		}
		e.fanout.Deliver(ctx, a)
	}
}

// observeHaptics feeds the event's unacknowledged exceeded-limit set to its
// differ so a fresh limit breach produces exactly one attention signal.
func (e *presenceEngine) observeHaptics(eventID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	differ, ok := e.haptics[eventID]
	if !ok {
		differ = alert.NewHapticDiffer(func() {
			e.logger.Warn("participant exceeded the time limit", slog.String("event_id", eventID.String()))
		})
		e.haptics[eventID] = differ
	}
	differ.Observe(e.store.UnacknowledgedExceededIDs(eventID))
}

// GetDisplayState returns the current derived view of a participant, warming
// the tracker from the latest persisted snapshot on a cold start.
func (e *presenceEngine) GetDisplayState(ctx context.Context, participantID uuid.UUID) (*presence.DisplayState, error) {
	now := e.now()

	e.mu.Lock()
	state, ok := e.tracker.DisplayState(participantID, now)
	e.mu.Unlock()
	if ok {
		return &state, nil
	}

	snap, err := e.snapshotRepo.FindLatestByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	participant, perr := e.participantRepo.FindParticipantByID(ctx, participantID)
	if perr != nil {
		e.logger.Debug("failed to resolve participant name while warming",
			slog.String("participant_id", participantID.String()),
			slog.String("error", perr.Error()))
	}

	e.mu.Lock()
	if perr == nil {
		e.names[participantID] = participant.DisplayName
	}
	e.tracker.Apply(snap, now)
	state, ok = e.tracker.DisplayState(participantID, now)
	e.mu.Unlock()
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}

	return &state, nil
}

// GetEventDisplayStates returns the derived view of every tracked
// participant of an event, warming the tracker from persistence when the
// event has no tracked participants yet.
func (e *presenceEngine) GetEventDisplayStates(ctx context.Context, eventID uuid.UUID) ([]presence.DisplayState, error) {
	now := e.now()

	e.mu.Lock()
	states := e.tracker.EventStates(eventID, now)
	e.mu.Unlock()
	if len(states) > 0 {
		return states, nil
	}

	snaps, err := e.snapshotRepo.FindLatestByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event snapshots: %w", err)
	}

	participants, perr := e.participantRepo.FindParticipantsByEvent(ctx, eventID)
	if perr != nil {
		e.logger.Debug("failed to resolve participant names while warming",
			slog.String("event_id", eventID.String()),
			slog.String("error", perr.Error()))
	}

	e.mu.Lock()
	for _, participant := range participants {
		e.names[participant.ID] = participant.DisplayName
	}
	for _, snap := range snaps {
		e.tracker.Apply(snap, now)
	}
	states = e.tracker.EventStates(eventID, now)
	e.mu.Unlock()

	return states, nil
}

// Reevaluate advances local estimates one tick. It starts staleness timers
// for participants whose telemetry went dark and raises alerts for
// participants whose estimate crossed the allowed time without a new sample.
func (e *presenceEngine) Reevaluate(ctx context.Context, now time.Time) error {
	if now.IsZero() {
		now = e.now()
	}

	e.mu.Lock()
	transitions := e.tracker.ActivateStaleTimers(now)
	for participantID, transition := range e.tracker.ReevaluateAll(now) {
		transitions[participantID] = transition
	}
	raised := make([]*entity.Alert, 0, len(transitions))
	events := make(map[uuid.UUID]struct{})
	for participantID, transition := range transitions {
		snap, ok := e.tracker.Snapshot(participantID)
		if !ok {
			continue
		}
		events[snap.EventID] = struct{}{}
		raised = append(raised, e.collectAlert(participantID, snap.EventID, e.names[participantID], transition, now)...)
		e.notifyLocked(participantID, now)
	}
	e.mu.Unlock()

	e.dispatch(ctx, raised)
	for eventID := range events {
		e.observeHaptics(eventID)
	}

	return nil
}

// SuspendParticipant freezes tracking for a participant marked absent. The
// frozen total survives so clearing the flag resumes where it stopped.
func (e *presenceEngine) SuspendParticipant(_ context.Context, participantID uuid.UUID) error {
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	prev, ok := e.tracker.Snapshot(participantID)
	if !ok {
		return nil
	}

	suspended := *prev
	suspended.ID = uuid.New()
	suspended.Sample.ObservedAt = now
	suspended.MarkedAbsent = true
	suspended.Severity = entity.SeverityAbsent
	suspended.TimerActive = false
	suspended.TimerStartedAt = nil
	suspended.CreatedAt = now

	if result := e.tracker.Apply(&suspended, now); result.Changed() {
		e.notifyLocked(participantID, now)
	}

	return nil
}

// ForgetParticipant drops all tracked state for a participant.
func (e *presenceEngine) ForgetParticipant(_ context.Context, participantID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker.Remove(participantID)
	e.dedup.Reset(participantID)
	e.store.RemoveForParticipant(participantID)
	delete(e.names, participantID)
	for _, ch := range e.subs[participantID] {
		close(ch)
	}
	delete(e.subs, participantID)

	return nil
}

// GetEventAlerts retrieves the persisted alerts of an event, newest first.
func (e *presenceEngine) GetEventAlerts(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Alert, error) {
	persisted, err := e.alertRepo.FindAlertsByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find alerts: %w", err)
	}

	alerts := make([]entity.Alert, 0, len(persisted))
	for _, a := range persisted {
		alerts = append(alerts, *a)
	}

	return alerts, nil
}

// GetUnacknowledgedAlerts returns the live unacknowledged working set.
func (e *presenceEngine) GetUnacknowledgedAlerts(_ context.Context, eventID uuid.UUID) ([]entity.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.Unacknowledged(eventID), nil
}

// GetAlertSummary returns the badge counters of an event.
func (e *presenceEngine) GetAlertSummary(_ context.Context, eventID uuid.UUID) (*usecase.AlertSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &usecase.AlertSummary{
		UnacknowledgedCount: e.store.UnacknowledgedCount(eventID),
		HasExceededLimit:    len(e.store.UnacknowledgedExceededIDs(eventID)) > 0,
	}, nil
}

// AcknowledgeAlert flips the local mirror immediately, submits the
// acknowledgment, and rolls the mirror back if the submission fails.
// Concurrent submissions for the same alert collapse into the one in flight.
func (e *presenceEngine) AcknowledgeAlert(ctx context.Context, eventID, alertID uuid.UUID) error {
	_, err, _ := e.ackGroup.Do(alertID.String(), func() (any, error) {
		now := e.now()

		e.mu.Lock()
		stored, tracked := e.store.Get(alertID)
		if tracked && stored.EventID != eventID {
			e.mu.Unlock()

			return nil, repository.ErrAlertNotFound
		}
		if tracked && stored.Acknowledged {
			e.mu.Unlock()

			return nil, nil
		}
		if tracked {
			e.store.SetAcknowledged(alertID, true, now)
		}
		e.mu.Unlock()

		if err := e.alertRepo.AcknowledgeAlert(ctx, alertID, now); err != nil {
			if errors.Is(err, repository.ErrAlertAlreadyAcknowledged) {
				return nil, nil
			}

			if tracked {
				e.mu.Lock()
				e.store.SetAcknowledged(alertID, false, now)
				e.mu.Unlock()
			}

			return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
		}

		return nil, nil
	})

	return err
}
