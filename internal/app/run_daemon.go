package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dev-tams/trashkit/internal/notify"
	"github.com/dev-tams/trashkit/internal/scan"
	"github.com/dev-tams/trashkit/internal/schedule"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/sweep"
)

type DaemonOptions struct {
	Schedule string // 5-field cron expression, UTC
	Sweep    SweepOptions
}

// RunDaemon runs the incremental sweep on a cron schedule until the context
// is canceled. Sweeps run unattended, so the mode is forced to AutoConfirm.
// A failed sweep is logged and the daemon keeps going; the cursor commit
// rules make the next firing pick up where the failure left off.
func RunDaemon(ctx context.Context, st store.Store, opts DaemonOptions, dispatcher *notify.Dispatcher, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	expr := strings.TrimSpace(opts.Schedule)
	if expr == "" {
		return fmt.Errorf("daemon: schedule is required")
	}
	spec, err := schedule.Parse(expr)
	if err != nil {
		return fmt.Errorf("daemon: invalid schedule %q: %w", expr, err)
	}

	sweepOpts := opts.Sweep
	sweepOpts.Mode = sweep.AutoConfirm

	log.Info("daemon started", "schedule", expr)

	var lastFired time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info("daemon shutdown requested")
			return nil
		case <-time.After(500 * time.Millisecond):
		}

		minute := time.Now().UTC().Truncate(time.Minute)
		if minute.Equal(lastFired) || !spec.Matches(minute) {
			continue
		}
		lastFired = minute

		log.Info("scheduled sweep triggered", "at", minute.Format(time.RFC3339))
		res, err := RunSweep(ctx, st, sweepOpts, nil, scan.NopReporter, dispatcher, log)
		if err != nil {
			log.Error("scheduled sweep failed", "error", err)
			continue
		}
		log.Info("scheduled sweep finished",
			"candidates", res.Outcome.Candidates,
			"deleted", res.Outcome.Deleted,
			"failed", len(res.Outcome.Failures),
			"committed", res.Committed,
		)
	}
}
