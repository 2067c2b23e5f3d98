package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dev-tams/trashkit/internal/config"
	"github.com/dev-tams/trashkit/internal/globber"
	"github.com/dev-tams/trashkit/internal/notify"
	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/sweep"
)

type GlobOptions struct {
	Timeout time.Duration
	Mode    sweep.Mode
}

type PatternResult struct {
	Pattern  string
	Matched  int
	Deleted  int
	Failures []sweep.Failure
}

type GlobResult struct {
	RunID    string
	Patterns []PatternResult
	Duration time.Duration
}

func (r *GlobResult) Deleted() int {
	n := 0
	for _, p := range r.Patterns {
		n += p.Deleted
	}
	return n
}

func (r *GlobResult) Matched() int {
	n := 0
	for _, p := range r.Patterns {
		n += p.Matched
	}
	return n
}

func (r *GlobResult) Failed() int {
	n := 0
	for _, p := range r.Patterns {
		n += len(p.Failures)
	}
	return n
}

// RunGlobSweep performs a full-scan pattern-based cleanup: every configured
// glob is matched against the whole trash set, and matches are fed to the
// deletion engine in config-sized pages with one confirmation per page.
// No cursor is involved; re-running is naturally idempotent.
func RunGlobSweep(ctx context.Context, st store.Store, cfg *config.GlobConfig, opts GlobOptions, confirm sweep.Confirm, log *slog.Logger) (*GlobResult, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("glob config: %w", err)
	}

	// Compile everything up front so a malformed pattern aborts before any
	// deletion starts.
	patterns := make([]*globber.Pattern, 0, len(cfg.Globs))
	for _, g := range cfg.Globs {
		p, err := globber.Compile(g)
		if err != nil {
			return nil, fmt.Errorf("glob config: %w", err)
		}
		patterns = append(patterns, p)
	}

	dispatcher, err := notify.NewDispatcher(cfg.Webhook)
	if err != nil {
		return nil, fmt.Errorf("glob config: %w", err)
	}

	runID := shortRunID()
	log = log.With("run", runID)
	started := time.Now()

	res, err := withRunRetries(ctx, log, func() (*GlobResult, error) {
		return globSweepOnce(ctx, st, cfg, opts, patterns, confirm, log)
	})
	if err != nil {
		notifyRun(ctx, dispatcher, notify.Event{
			Mode:     "glob",
			Status:   notify.StatusFailure,
			Duration: time.Since(started).Round(time.Millisecond).String(),
			Error:    err.Error(),
		}, log)
		return nil, err
	}

	res.RunID = runID
	res.Duration = time.Since(started)
	notifyRun(ctx, dispatcher, notify.Event{
		Mode:     "glob",
		Status:   notify.StatusSuccess,
		Scanned:  res.Matched(),
		Deleted:  res.Deleted(),
		Failed:   res.Failed(),
		Duration: res.Duration.Round(time.Millisecond).String(),
	}, log)
	return res, nil
}

func globSweepOnce(ctx context.Context, st store.Store, cfg *config.GlobConfig, opts GlobOptions, patterns []*globber.Pattern, confirm sweep.Confirm, log *slog.Logger) (*GlobResult, error) {
	budgetCtx, cancel := retry.Budget(ctx, opts.Timeout)
	defer cancel()

	exec := &retry.Executor{Retryable: store.IsTransient}
	selector := globber.NewEngine(st, exec, log)
	engine := sweep.NewEngine(st, exec, log)

	res := &GlobResult{}
	for _, p := range patterns {
		plog := log.With("pattern", p.String())

		items, err := selector.Select(budgetCtx, globber.Filter{
			Pattern:        p,
			MaxDateOpened:  cfg.MaxDate(),
			RequiredParent: cfg.RequiredParent,
		})
		if err != nil {
			return nil, err
		}
		plog.Info("pattern matched", "items", len(items))

		pr := PatternResult{Pattern: p.String(), Matched: len(items)}
		for start := 0; start < len(items); start += cfg.MaxFilesPerDelete {
			end := min(start+cfg.MaxFilesPerDelete, len(items))
			page := make([]sweep.Candidate, 0, end-start)
			for _, it := range items[start:end] {
				page = append(page, sweep.Candidate{
					ID:        it.ID,
					TrashedAt: it.LastOpened,
					Display:   it.Name,
				})
			}

			out, err := engine.Apply(budgetCtx, page, opts.Mode, confirm)
			pr.Deleted += out.Deleted
			pr.Failures = append(pr.Failures, out.Failures...)
			if err != nil {
				res.Patterns = append(res.Patterns, pr)
				return nil, err
			}
		}
		res.Patterns = append(res.Patterns, pr)
	}
	return res, nil
}
