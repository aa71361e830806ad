package tick

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detector"
)

// Runner polls a detector source and feeds the orchestrator, one tick at a
// time.
type Runner struct {
	Source       detector.Source
	Orchestrator *Orchestrator
	Interval     time.Duration
	Publish      func(Result)
}

// Run ticks until ctx is done or the source is exhausted. Source errors skip
// the tick. Any running liveness check is cancelled on exit.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = constants.DefaultTickInterval
	}
	defer r.Orchestrator.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		obs, err := r.Source.Observe(ctx)
		if errors.Is(err, io.EOF) {
			slog.Info("detector source exhausted")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("detector observation failed, skipping tick", "error", err)
			continue
		}

		res := r.Orchestrator.Tick(ctx, obs)
		if r.Publish != nil {
			r.Publish(res)
		}
	}
}
