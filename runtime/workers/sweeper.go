package workers

import (
	"batepapo/domain"
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// PresenceSweeper is the slice of the presence service the sweeper needs.
type PresenceSweeper interface {
	EvictStale(ctx context.Context, window time.Duration, now time.Time) ([]domain.Message, error)
}

// SweeperWorker fires on a fixed period and removes stale participants.
// A failed firing is logged and the schedule continues; the worker only
// stops when its context is canceled.
type SweeperWorker struct {
	presence PresenceSweeper
	window   time.Duration
	period   time.Duration
	log      *slog.Logger
}

func NewSweeperWorker(presence PresenceSweeper, window, period time.Duration, log *slog.Logger) *SweeperWorker {
	return &SweeperWorker{presence: presence, window: window, period: period, log: log}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting eviction sweeper", "window", w.window, "period", w.period)
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			departures, err := w.presence.EvictStale(ctx, w.window, time.Now().UTC())
			if err != nil {
				w.log.Warn("Sweep firing failed", "error", err)
			}
			if len(departures) > 0 {
				w.log.Info("Swept stale participants",
					"count", len(departures),
					"names", lo.Map(departures, func(m domain.Message, _ int) string { return m.From }))
			}
		}
	}
}
