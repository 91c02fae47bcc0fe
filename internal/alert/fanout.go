package alert

import (
	"context"
	"log/slog"
	"sync"

	"perimeter/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrChannelUnavailable signals that a channel cannot deliver right now, for
// example because the user revoked the underlying permission. Unavailable
// deliveries are skipped without being recorded, so the channel gets another
// chance when it comes back.
var ErrChannelUnavailable = errors.New("alert channel unavailable")

// Channel delivers one alert to a single surface.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert *entity.Alert) error
}

// ChannelFunc adapts a function into a Channel.
type ChannelFunc struct {
	ChannelName string
	Fn          func(ctx context.Context, alert *entity.Alert) error
}

func (c ChannelFunc) Name() string { return c.ChannelName }

func (c ChannelFunc) Deliver(ctx context.Context, alert *entity.Alert) error {
	return c.Fn(ctx, alert)
}

type deliveryKey struct {
	alertID uuid.UUID
	channel string
}

// Fanout delivers each alert to every registered channel at most once. A
// failure on one channel never suppresses the others, and replaying an alert
// never re-triggers a channel that already delivered it.
//
// Unlike the deduplicator and store, the fanout runs outside the engine's
// critical section and guards itself.
type Fanout struct {
	logger *slog.Logger

	mu        sync.Mutex
	channels  []Channel
	delivered map[deliveryKey]struct{}
}

// NewFanout creates a fanout with no channels registered.
func NewFanout(logger *slog.Logger) *Fanout {
	return &Fanout{
		logger:    logger,
		delivered: make(map[deliveryKey]struct{}),
	}
}

// Register adds a delivery channel.
func (f *Fanout) Register(ch Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, ch)
}

// Deliver pushes the alert through every channel that has not delivered it
// yet. Errors are logged per channel and never returned to the caller; the
// presence pipeline must not stall on a slow or broken surface.
func (f *Fanout) Deliver(ctx context.Context, alert *entity.Alert) {
	f.mu.Lock()
	pending := make([]Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		key := deliveryKey{alertID: alert.ID, channel: ch.Name()}
		if _, done := f.delivered[key]; !done {
			pending = append(pending, ch)
		}
	}
	f.mu.Unlock()

	for _, ch := range pending {
		err := ch.Deliver(ctx, alert)
		switch {
		case err == nil:
			f.markDelivered(alert.ID, ch.Name())
		case errors.Is(err, ErrChannelUnavailable):
			f.logger.Debug("alert channel unavailable",
				slog.String("channel", ch.Name()),
				slog.String("alert_id", alert.ID.String()))
		default:
			f.logger.Error("alert delivery failed",
				slog.String("channel", ch.Name()),
				slog.String("alert_id", alert.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (f *Fanout) markDelivered(alertID uuid.UUID, channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered[deliveryKey{alertID: alertID, channel: channel}] = struct{}{}
}

// Forget releases the delivery records of an alert once it leaves the
// working set.
func (f *Fanout) Forget(alertID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.delivered {
		if key.alertID == alertID {
			delete(f.delivered, key)
		}
	}
}

// HapticDiffer fires a signal only when a new unacknowledged exceeded-limit
// alert appears in the set it observes. Acknowledging or removing alerts
// shrinks the set without firing.
type HapticDiffer struct {
	fire func()
	seen map[uuid.UUID]struct{}
}

// NewHapticDiffer creates a differ invoking fire for each newly observed ID.
func NewHapticDiffer(fire func()) *HapticDiffer {
	return &HapticDiffer{
		fire: fire,
		seen: make(map[uuid.UUID]struct{}),
	}
}

// Observe compares the current unacknowledged high-severity IDs against the
// previous observation and fires once per ID not present last time. IDs
// absent from the current set are dropped so the differ never outgrows the
// working set.
func (h *HapticDiffer) Observe(ids []uuid.UUID) {
	current := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := current[id]; dup {
			continue
		}
		current[id] = struct{}{}
		if _, ok := h.seen[id]; !ok && h.fire != nil {
			h.fire()
		}
	}
	h.seen = current
}
