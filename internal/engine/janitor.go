package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/rule-engine/internal/core/window"
)

// DefaultJanitorInterval is the sweep period used when none is configured.
const DefaultJanitorInterval = 60 * time.Second

// sweeper is the part of Engine the janitor drives.
type sweeper interface {
	Sweep() window.SweepStats
}

// Janitor periodically evicts aged entries from every device window, so
// devices that stop sending do not pin memory. It is independent of the
// ingest path and only touches the window store.
type Janitor struct {
	interval time.Duration
	target   sweeper
}

// NewJanitor creates a janitor for the engine's store. Non-positive intervals
// fall back to DefaultJanitorInterval.
func NewJanitor(target *Engine, interval time.Duration) *Janitor {
	return newJanitor(target, interval)
}

func newJanitor(target sweeper, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &Janitor{interval: interval, target: target}
}

// Start sweeps on every tick until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.Info("[Janitor] Starting window janitor", "interval", j.interval)

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(); err != nil {
				slog.Error("[Janitor] Sweep failed, will retry next tick", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[Janitor] Stopping (context cancelled)")
			return nil
		}
	}
}

// RunOnce performs a single sweep. A panic inside the sweep is recovered and
// returned as an error so one bad tick never takes the process down.
func (j *Janitor) RunOnce() (stats window.SweepStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errSweepPanic, r)
		}
	}()

	start := time.Now()
	stats = j.target.Sweep()

	if stats.Evicted > 0 || stats.Removed > 0 {
		slog.Info("[Janitor] Sweep complete",
			"devices", stats.Devices,
			"evicted", stats.Evicted,
			"removed", stats.Removed,
			"duration", time.Since(start))
	}
	return stats, nil
}

var errSweepPanic = errors.New("window sweep panicked")
