package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"perimeter/config"
	"perimeter/internal/domain/entity"
	"perimeter/internal/domain/repository"
	"perimeter/internal/domain/service"
	"perimeter/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	events map[uuid.UUID]*entity.Event
}

func (f *fakeEventRepo) CreateEvent(_ context.Context, event *entity.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) FindEventByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventRepo) FindEventsByOrganizer(_ context.Context, organizerID uuid.UUID) ([]*entity.Event, error) {
	var out []*entity.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) FindActiveEvents(_ context.Context) ([]*entity.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) UpdateEvent(_ context.Context, event *entity.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) UpdateGeofence(_ context.Context, eventID uuid.UUID, geofence entity.GeofenceSpec) error {
	event, ok := f.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	event.Geofence = geofence
	return nil
}

func (f *fakeEventRepo) DeleteEvent(_ context.Context, id uuid.UUID) error {
	delete(f.events, id)
	return nil
}

type fakeParticipantRepo struct {
	participants map[uuid.UUID]*entity.Participant
}

func (f *fakeParticipantRepo) CreateParticipant(_ context.Context, p *entity.Participant) error {
	f.participants[p.ID] = p
	return nil
}

func (f *fakeParticipantRepo) FindParticipantByID(_ context.Context, id uuid.UUID) (*entity.Participant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	return p, nil
}

func (f *fakeParticipantRepo) FindParticipantsByEvent(_ context.Context, eventID uuid.UUID) ([]*entity.Participant, error) {
	var out []*entity.Participant
	for _, p := range f.participants {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) SetCheckedIn(_ context.Context, id uuid.UUID, checkedInAt time.Time) error {
	p, ok := f.participants[id]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	p.CheckedInAt = &checkedInAt
	return nil
}

func (f *fakeParticipantRepo) SetMarkedAbsent(_ context.Context, id uuid.UUID, markedAbsent bool) error {
	p, ok := f.participants[id]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	p.MarkedAbsent = markedAbsent
	return nil
}

func (f *fakeParticipantRepo) DeleteParticipant(_ context.Context, id uuid.UUID) error {
	delete(f.participants, id)
	return nil
}

type fakeSnapshotRepo struct {
	created []*entity.PresenceSnapshot
}

func (f *fakeSnapshotRepo) CreateSnapshot(_ context.Context, snapshot *entity.PresenceSnapshot) error {
	f.created = append(f.created, snapshot)
	return nil
}

func (f *fakeSnapshotRepo) FindLatestByParticipant(_ context.Context, participantID uuid.UUID) (*entity.PresenceSnapshot, error) {
	var latest *entity.PresenceSnapshot
	for _, snap := range f.created {
		if snap.ParticipantID != participantID {
			continue
		}
		if latest == nil || snap.Sample.ObservedAt.After(latest.Sample.ObservedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	return latest, nil
}

func (f *fakeSnapshotRepo) FindLatestByEvent(_ context.Context, eventID uuid.UUID) ([]*entity.PresenceSnapshot, error) {
	latest := make(map[uuid.UUID]*entity.PresenceSnapshot)
	for _, snap := range f.created {
		if snap.EventID != eventID {
			continue
		}
		current, ok := latest[snap.ParticipantID]
		if !ok || snap.Sample.ObservedAt.After(current.Sample.ObservedAt) {
			latest[snap.ParticipantID] = snap
		}
	}
	out := make([]*entity.PresenceSnapshot, 0, len(latest))
	for _, snap := range latest {
		out = append(out, snap)
	}
	return out, nil
}

func (f *fakeSnapshotRepo) DeleteOlderThan(_ context.Context, _ uuid.UUID, _ int) error {
	return nil
}

type fakeAlertRepo struct {
	created []*entity.Alert
	ackErr  error
	acked   map[uuid.UUID]int
}

func (f *fakeAlertRepo) CreateAlert(_ context.Context, alert *entity.Alert) error {
	f.created = append(f.created, alert)
	return nil
}

func (f *fakeAlertRepo) FindAlertByID(_ context.Context, id uuid.UUID) (*entity.Alert, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrAlertNotFound
}

func (f *fakeAlertRepo) FindAlertsByEvent(_ context.Context, eventID uuid.UUID, _ int) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range f.created {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) FindUnacknowledgedByEvent(_ context.Context, eventID uuid.UUID) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range f.created {
		if a.EventID == eventID && !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) AcknowledgeAlert(_ context.Context, id uuid.UUID, _ time.Time) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	if f.acked == nil {
		f.acked = make(map[uuid.UUID]int)
	}
	f.acked[id]++
	return nil
}

type fakePublisher struct {
	events []*service.AlertEvent
}

func (f *fakePublisher) PublishAlertEvent(_ context.Context, event *service.AlertEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type engineFixture struct {
	engine      *presenceEngine
	presence    usecase.PresenceUsecase
	alerts      usecase.AlertUsecase
	eventRepo   *fakeEventRepo
	partRepo    *fakeParticipantRepo
	snapRepo    *fakeSnapshotRepo
	alertRepo   *fakeAlertRepo
	publisher   *fakePublisher
	event       *entity.Event
	participant *entity.Participant
	now         time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	cfg := &config.Config{
		Presence: &config.PresenceConfig{
			StaleAfter:            3 * time.Minute,
			VeryStaleAfter:        10 * time.Minute,
			SnapshotPollInterval:  30 * time.Second,
			TickInterval:          time.Second,
			WarningRatio:          0.8,
			MaxTimeOutsideSeconds: 900,
		},
		Geofence: &config.GeofenceConfig{
			MinRadiusMeters:     10,
			MaxRadiusMeters:     20000,
			DefaultRadiusMeters: 100,
		},
	}

	event := &entity.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Name:        "Team Offsite",
		Geofence: entity.GeofenceSpec{
			CenterLatitude:  25.0330,
			CenterLongitude: 121.5654,
			RadiusMeters:    100,
		},
		MaxTimeOutsideSeconds: 900,
	}
	participant := &entity.Participant{
		ID:          uuid.New(),
		EventID:     event.ID,
		DisplayName: "Alice",
	}

	f := &engineFixture{
		eventRepo: &fakeEventRepo{events: map[uuid.UUID]*entity.Event{event.ID: event}},
		partRepo:  &fakeParticipantRepo{participants: map[uuid.UUID]*entity.Participant{participant.ID: participant}},
		snapRepo:  &fakeSnapshotRepo{},
		alertRepo: &fakeAlertRepo{},
		publisher: &fakePublisher{},
		event:     event,
		participant: participant,
		now:       time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	presenceUC, alertUC := NewPresenceEngine(cfg, logger, f.eventRepo, f.partRepo, f.snapRepo, f.alertRepo, f.publisher)
	f.presence = presenceUC
	f.alerts = alertUC
	f.engine = presenceUC.(*presenceEngine)
	f.engine.now = func() time.Time { return f.now }

	return f
}

// insideSample and outsideSample are fixed points well inside and well
// outside the 100 m fixture geofence.
func (f *engineFixture) insideSample(observedAt time.Time) *usecase.IngestSampleInput {
	return &usecase.IngestSampleInput{
		Latitude:   f.event.Geofence.CenterLatitude,
		Longitude:  f.event.Geofence.CenterLongitude,
		ObservedAt: observedAt,
	}
}

func (f *engineFixture) outsideSample(observedAt time.Time) *usecase.IngestSampleInput {
	return &usecase.IngestSampleInput{
		Latitude:   f.event.Geofence.CenterLatitude + 0.01, // ~1.1 km north
		Longitude:  f.event.Geofence.CenterLongitude,
		ObservedAt: observedAt,
	}
}

func TestPresenceEngine_IngestInsideSample(t *testing.T) {
	f := newEngineFixture(t)

	state, err := f.presence.IngestSample(context.Background(), f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)

	assert.Equal(t, entity.PresenceInside, state.State)
	assert.Equal(t, 900, state.RemainingSeconds)
	assert.False(t, state.TimerActive)
	assert.Empty(t, f.alertRepo.created)
	require.Len(t, f.snapRepo.created, 1)
	assert.Equal(t, entity.SeverityInside, f.snapRepo.created[0].Severity)
}

func TestPresenceEngine_OutsideAccumulatesAndWarns(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)

	// Leaving the perimeter starts the timer but raises nothing.
	f.now = f.now.Add(10 * time.Second)
	state, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOutside, state.State)
	assert.True(t, state.TimerActive)
	assert.Empty(t, f.alertRepo.created)

	// 750 accumulated seconds crosses the 720 s warning threshold.
	f.now = f.now.Add(750 * time.Second)
	state, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceWarning, state.State)
	assert.Equal(t, 150, state.RemainingSeconds)

	require.Len(t, f.alertRepo.created, 1)
	assert.Equal(t, entity.AlertTypeWarning, f.alertRepo.created[0].Type)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "Alice", f.publisher.events[0].ParticipantName)

	// Replaying the same sample is discarded and raises nothing new.
	state, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceWarning, state.State)
	assert.Len(t, f.alertRepo.created, 1)

	// Returning resets the excursion and raises a return alert.
	f.now = f.now.Add(30 * time.Second)
	state, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceInside, state.State)
	assert.Equal(t, 900, state.RemainingSeconds)

	require.Len(t, f.alertRepo.created, 2)
	assert.Equal(t, entity.AlertTypeReturned, f.alertRepo.created[1].Type)
}

func TestPresenceEngine_TickEscalatesToExceeded(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Second)
	_, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)

	f.now = f.now.Add(750 * time.Second)
	_, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	require.Len(t, f.alertRepo.created, 1)

	// No new samples; the local estimate crosses 900 s and the tick
	// escalates warning to exceeded.
	f.now = f.now.Add(151 * time.Second)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))

	require.Len(t, f.alertRepo.created, 2)
	assert.Equal(t, entity.AlertTypeExceededLimit, f.alertRepo.created[1].Type)

	state, err := f.presence.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceExceededLimit, state.State)
	assert.Equal(t, 0, state.RemainingSeconds)

	// Further ticks never re-alert.
	f.now = f.now.Add(time.Second)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))
	assert.Len(t, f.alertRepo.created, 2)
}

func TestPresenceEngine_IndependentAcknowledgment(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// Second participant in the same event.
	other := &entity.Participant{ID: uuid.New(), EventID: f.event.ID, DisplayName: "Bob"}
	f.partRepo.participants[other.ID] = other

	for _, id := range []uuid.UUID{f.participant.ID, other.ID} {
		_, err := f.presence.IngestSample(ctx, f.event.ID, id, f.outsideSample(f.now))
		require.NoError(t, err)
	}
	f.now = f.now.Add(750 * time.Second)
	for _, id := range []uuid.UUID{f.participant.ID, other.ID} {
		_, err := f.presence.IngestSample(ctx, f.event.ID, id, f.outsideSample(f.now))
		require.NoError(t, err)
	}

	unacked, err := f.alerts.GetUnacknowledgedAlerts(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, unacked, 2)

	// Acknowledging the first leaves the second untouched.
	require.NoError(t, f.alerts.AcknowledgeAlert(ctx, f.event.ID, unacked[0].ID))

	remaining, err := f.alerts.GetUnacknowledgedAlerts(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, unacked[1].ID, remaining[0].ID)

	summary, err := f.alerts.GetAlertSummary(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnacknowledgedCount)

	assert.Equal(t, 1, f.alertRepo.acked[unacked[0].ID])

	// Acknowledging again is a no-op.
	require.NoError(t, f.alerts.AcknowledgeAlert(ctx, f.event.ID, unacked[0].ID))
	assert.Equal(t, 1, f.alertRepo.acked[unacked[0].ID])
}

func TestPresenceEngine_AckRevertsOnSubmissionFailure(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	f.now = f.now.Add(750 * time.Second)
	_, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)

	unacked, err := f.alerts.GetUnacknowledgedAlerts(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, unacked, 1)

	f.alertRepo.ackErr = errors.New("backend unavailable")
	err = f.alerts.AcknowledgeAlert(ctx, f.event.ID, unacked[0].ID)
	require.Error(t, err)

	// The optimistic flip rolled back.
	remaining, err := f.alerts.GetUnacknowledgedAlerts(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	// Retry succeeds once the backend recovers.
	f.alertRepo.ackErr = nil
	require.NoError(t, f.alerts.AcknowledgeAlert(ctx, f.event.ID, unacked[0].ID))
	remaining, err = f.alerts.GetUnacknowledgedAlerts(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPresenceEngine_AbsentParticipantStaysSuspended(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)

	f.participant.MarkedAbsent = true
	f.now = f.now.Add(10 * time.Second)
	require.NoError(t, f.presence.SuspendParticipant(ctx, f.participant.ID))

	state, err := f.presence.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceAbsent, state.State)
	assert.False(t, state.TimerActive)

	// Ticks never escalate a suspended participant.
	f.now = f.now.Add(2 * time.Hour)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))
	state, err = f.presence.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceAbsent, state.State)
	assert.Empty(t, f.alertRepo.created)
}

func TestPresenceEngine_ColdStartWarmsFromPersistence(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	require.Len(t, f.snapRepo.created, 1)

	// Fresh engine sharing the same persistence.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	presenceUC, _ := NewPresenceEngine(f.engine.cfg, logger, f.eventRepo, f.partRepo, f.snapRepo, f.alertRepo, f.publisher)
	restarted := presenceUC.(*presenceEngine)
	restarted.now = func() time.Time { return f.now }

	state, err := presenceUC.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOutside, state.State)

	states, err := presenceUC.GetEventDisplayStates(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestPresenceEngine_StaleTelemetryStartsTimerAndEscalates(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)

	// Four minutes of silence: the inside confirmation is too old to trust,
	// so the tick starts the timer anchored at the 3-minute boundary. The
	// presumed departure itself raises nothing.
	f.now = f.now.Add(4 * time.Minute)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))
	assert.Empty(t, f.alertRepo.created)

	state, err := f.presence.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOutside, state.State)
	assert.True(t, state.TimerActive)
	assert.Equal(t, 60, state.EstimatedOutsideSeconds)
	assert.True(t, state.IsStale)

	// Dark time keeps accumulating until the limit is crossed.
	f.now = f.now.Add(14 * time.Minute)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))

	require.Len(t, f.alertRepo.created, 1)
	assert.Equal(t, entity.AlertTypeExceededLimit, f.alertRepo.created[0].Type)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "Alice", f.publisher.events[0].ParticipantName)

	// Further ticks never re-alert.
	f.now = f.now.Add(time.Second)
	require.NoError(t, f.presence.Reevaluate(ctx, f.now))
	assert.Len(t, f.alertRepo.created, 1)
}

func TestPresenceEngine_WarmedParticipantsKeepDisplayNames(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)
	require.Empty(t, f.publisher.events)

	// Fresh engine sharing the same persistence warms from the snapshot.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	presenceUC, _ := NewPresenceEngine(f.engine.cfg, logger, f.eventRepo, f.partRepo, f.snapRepo, f.alertRepo, f.publisher)
	restarted := presenceUC.(*presenceEngine)
	restarted.now = func() time.Time { return f.now }

	state, err := presenceUC.GetDisplayState(ctx, f.participant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOutside, state.State)

	// An alert raised after the restart still carries the display name.
	f.now = f.now.Add(901 * time.Second)
	require.NoError(t, presenceUC.Reevaluate(ctx, f.now))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, string(entity.AlertTypeExceededLimit), f.publisher.events[0].AlertType)
	assert.Equal(t, "Alice", f.publisher.events[0].ParticipantName)
}

func TestPresenceEngine_SubscribeNotifiesPerDistinctChange(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	updates, cancel := f.presence.Subscribe(ctx, f.participant.ID)
	defer cancel()

	_, err := f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)

	state := <-updates
	assert.Equal(t, entity.PresenceInside, state.State)

	// A sample that leaves the state unchanged does not notify.
	f.now = f.now.Add(10 * time.Second)
	_, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.insideSample(f.now))
	require.NoError(t, err)
	assert.Empty(t, updates)

	f.now = f.now.Add(10 * time.Second)
	_, err = f.presence.IngestSample(ctx, f.event.ID, f.participant.ID, f.outsideSample(f.now))
	require.NoError(t, err)

	state = <-updates
	assert.Equal(t, entity.PresenceOutside, state.State)
	assert.True(t, state.TimerActive)

	cancel()
	_, open := <-updates
	assert.False(t, open)
}

func TestPresenceEngine_RejectsParticipantFromOtherEvent(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.presence.IngestSample(context.Background(), uuid.New(), f.participant.ID, f.insideSample(f.now))
	assert.ErrorIs(t, err, repository.ErrParticipantNotFound)
}
