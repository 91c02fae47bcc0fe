// Package ticker drives the presence engine's local countdown advancement.
package ticker

import (
	"context"
	"log/slog"
	"time"

	"perimeter/config"
	"perimeter/internal/delivery"
	"perimeter/internal/usecase"
)

type tickerServer struct {
	interval time.Duration
	presence usecase.PresenceUsecase
	logger   *slog.Logger
}

// NewServer creates the tick loop. Each tick re-derives every tracked
// participant so estimates that crossed the allowed time escalate between
// snapshot refreshes.
func NewServer(cfg *config.Config, presence usecase.PresenceUsecase, logger *slog.Logger) delivery.Delivery {
	return &tickerServer{
		interval: cfg.Presence.TickInterval,
		presence: presence,
		logger:   logger,
	}
}

// Serve blocks, reevaluating presence state once per tick until the context
// is canceled.
func (s *tickerServer) Serve(ctx context.Context) error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Second
	}

	s.logger.Info("presence ticker started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("presence ticker stopped")

			return ctx.Err()
		case now := <-ticker.C:
			if err := s.presence.Reevaluate(ctx, now); err != nil {
				s.logger.Error("presence reevaluation failed", slog.String("error", err.Error()))
			}
		}
	}
}
