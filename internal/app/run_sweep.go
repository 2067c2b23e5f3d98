// Package app ties the scanner, deletion engine, and cursor store into
// whole-run operations with a retry envelope around each.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dev-tams/trashkit/internal/cursor"
	"github.com/dev-tams/trashkit/internal/notify"
	"github.com/dev-tams/trashkit/internal/resolve"
	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/scan"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/sweep"
)

const (
	// runRetries bounds whole-run attempts after a timeout or auth failure.
	runRetries       = 3
	runRetryInterval = 2 * time.Second

	notificationTimeout = 5 * time.Second
)

type SweepOptions struct {
	MaxAgeDays  int
	Timeout     time.Duration // shared remote-call budget, 0 = unlimited
	Mode        sweep.Mode
	MyDriveOnly bool
	FullPath    bool
	CursorPath  string
}

type SweepResult struct {
	RunID     string
	Outcome   sweep.Outcome
	Before    cursor.Token
	After     cursor.Token
	Committed cursor.Token // cursor position persisted for the next run
	Duration  time.Duration
}

// RunSweep performs one incremental age-based cleanup. Timeout and auth
// failures retry the whole run a fixed number of times; anything else aborts
// immediately. The persisted cursor only ever reflects a completed commit
// point, so an abort at any moment is safe.
func RunSweep(ctx context.Context, st store.Store, opts SweepOptions, confirm sweep.Confirm, reporter scan.Reporter, dispatcher *notify.Dispatcher, log *slog.Logger) (*SweepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	runID := shortRunID()
	log = log.With("run", runID)

	started := time.Now()
	res, err := withRunRetries(ctx, log, func() (*SweepResult, error) {
		return sweepOnce(ctx, st, opts, confirm, reporter, log)
	})
	if err != nil {
		notifyRun(ctx, dispatcher, notify.Event{
			Mode:     "sweep",
			Status:   notify.StatusFailure,
			Duration: time.Since(started).Round(time.Millisecond).String(),
			Error:    err.Error(),
		}, log)
		return nil, err
	}

	res.RunID = runID
	res.Duration = time.Since(started)
	notifyRun(ctx, dispatcher, notify.Event{
		Mode:     "sweep",
		Status:   notify.StatusSuccess,
		Scanned:  res.Outcome.Candidates,
		Deleted:  res.Outcome.Deleted,
		Failed:   len(res.Outcome.Failures),
		Duration: res.Duration.Round(time.Millisecond).String(),
	}, log)
	return res, nil
}

func sweepOnce(ctx context.Context, st store.Store, opts SweepOptions, confirm sweep.Confirm, reporter scan.Reporter, log *slog.Logger) (*SweepResult, error) {
	budgetCtx, cancel := retry.Budget(ctx, opts.Timeout)
	defer cancel()

	exec := &retry.Executor{Retryable: store.IsTransient}
	cfile := cursor.NewFile(opts.CursorPath)

	from, err := cfile.Load()
	if err != nil {
		return nil, err
	}

	var resolver *resolve.Resolver
	if opts.FullPath {
		resolver = resolve.New(st, exec)
	}

	scanner := scan.New(st, exec, resolver, reporter, log)
	scanRes, err := scanner.Scan(budgetCtx, from, scan.Options{
		MaxAge:      time.Duration(opts.MaxAgeDays) * 24 * time.Hour,
		MyDriveOnly: opts.MyDriveOnly,
		FullPath:    opts.FullPath,
	})
	if err != nil {
		return nil, err
	}
	log.Info("scan complete", "candidates", len(scanRes.Candidates), "before", scanRes.Before, "after", scanRes.After)

	// Before is unconditionally safe to resume from; commit it ahead of any
	// deletion so an interrupted run loses no work and no data.
	if err := cfile.Save(scanRes.Before); err != nil {
		return nil, err
	}

	res := &SweepResult{
		Before:    scanRes.Before,
		After:     scanRes.After,
		Committed: scanRes.Before,
	}

	engine := sweep.NewEngine(st, exec, log)
	res.Outcome, err = engine.Apply(budgetCtx, scanRes.Candidates, opts.Mode, confirm)
	if err != nil {
		return nil, err
	}

	// After is valid only once every candidate is gone.
	if res.Outcome.Drained {
		if err := cfile.Save(scanRes.After); err != nil {
			return nil, err
		}
		res.Committed = scanRes.After
	}
	return res, nil
}

// withRunRetries re-runs fn on timeout or auth failure, the cases where the
// backend may have recovered by the next attempt.
func withRunRetries[T any](ctx context.Context, log *slog.Logger, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= runRetries; attempt++ {
		if attempt > 1 {
			log.Warn("retrying run", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(runRetryInterval):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, retry.ErrTimeout) && !store.IsAuth(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("retries unsuccessful: %w", lastErr)
}

func notifyRun(ctx context.Context, dispatcher *notify.Dispatcher, event notify.Event, log *slog.Logger) {
	if dispatcher == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil {
		log.Warn("notification failed", "error", err)
	}
}

func shortRunID() string {
	return uuid.NewString()[:8]
}
