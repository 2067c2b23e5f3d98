// Package sweep deletes selected trash candidates in bounded batches,
// tolerating per-item failure.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
)

// maxBatchSize bounds one logical delete round-trip. Batches never run
// concurrently against the same remote identity within a run.
const maxBatchSize = 100

// Candidate is one item selected for deletion. Immutable once created.
type Candidate struct {
	ID        string
	TrashedAt string // wire-encoded trash (or last-opened) timestamp
	Display   string // name, or full path when path resolution is on
}

type Mode int

const (
	// ViewOnly reports the candidate count and mutates nothing.
	ViewOnly Mode = iota
	// PromptConfirm asks the injected confirmer before deleting.
	PromptConfirm
	// AutoConfirm deletes without asking.
	AutoConfirm
)

// Confirm blocks for a yes/no decision keyed to the candidate count.
type Confirm func(n int) (bool, error)

// Failure pairs a candidate with the reason it could not be deleted.
type Failure struct {
	Candidate Candidate
	Err       error
}

// Outcome is the aggregate accounting for one Apply call. Drained reports
// that every candidate was deleted; only then may the caller advance the
// persisted cursor past the scanned range.
type Outcome struct {
	Candidates int
	Deleted    int
	Failures   []Failure
	Drained    bool
}

type Engine struct {
	store store.Store
	exec  *retry.Executor
	log   *slog.Logger
}

func NewEngine(st store.Store, exec *retry.Executor, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: st, exec: exec, log: log}
}

// Apply deletes candidates newest-trashed first. The scanner freezes its
// resume cursor before the oldest candidate, so any interrupted prefix of
// this order is rediscovered on the next run; attempting the newest items
// first also gives the entries closest to the age threshold the best chance
// of being processed before a timeout.
//
// Per-item failures are collected, never fatal. A budget timeout or context
// cancellation aborts with the partial outcome.
func (e *Engine) Apply(ctx context.Context, candidates []Candidate, mode Mode, confirm Confirm) (Outcome, error) {
	out := Outcome{Candidates: len(candidates)}
	if len(candidates) == 0 {
		out.Drained = true
		return out, nil
	}

	if mode == ViewOnly {
		return out, nil
	}
	if mode == PromptConfirm {
		if confirm == nil {
			return out, errors.New("sweep: prompt mode requires a confirmer")
		}
		ok, err := confirm(len(candidates))
		if err != nil {
			return out, fmt.Errorf("confirm deletion: %w", err)
		}
		if !ok {
			return out, nil
		}
	}

	// newest trashed first
	ordered := make([]Candidate, len(candidates))
	for i, c := range candidates {
		ordered[len(candidates)-1-i] = c
	}

	batcher, _ := e.store.(store.BatchDeleter)
	for start := 0; start < len(ordered); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ordered))
		batch := ordered[start:end]

		var err error
		if batcher != nil {
			err = e.deleteBatched(ctx, batcher, batch, &out)
		} else {
			err = e.deleteOneByOne(ctx, batch, &out)
		}
		if err != nil {
			out.Drained = false
			return out, err
		}
	}

	out.Drained = out.Deleted == len(candidates) && len(out.Failures) == 0
	return out, nil
}

// deleteBatched issues the batch as one round-trip. A whole-batch transport
// failure gets exactly one retry; a second failure marks every item in the
// batch as failed for this run.
func (e *Engine) deleteBatched(ctx context.Context, batcher store.BatchDeleter, batch []Candidate, out *Outcome) error {
	ids := make([]string, len(batch))
	byID := make(map[string]Candidate, len(batch))
	for i, c := range batch {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	results, err := batcher.DeleteBatch(ctx, ids)
	if err != nil {
		e.log.Warn("delete batch failed, retrying once", "size", len(ids), "error", err)
		results, err = batcher.DeleteBatch(ctx, ids)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("delete batch: %w", retry.ErrTimeout)
		}
		for _, c := range batch {
			out.Failures = append(out.Failures, Failure{Candidate: c, Err: err})
		}
		return nil
	}

	for _, res := range results {
		c := byID[res.ID]
		if res.Err != nil {
			e.log.Warn("delete failed", "id", res.ID, "name", c.Display, "error", res.Err)
			out.Failures = append(out.Failures, Failure{Candidate: c, Err: res.Err})
			continue
		}
		out.Deleted++
		e.log.Info("deleted", "id", res.ID, "trashed_at", c.TrashedAt, "name", c.Display)
	}
	return nil
}

func (e *Engine) deleteOneByOne(ctx context.Context, batch []Candidate, out *Outcome) error {
	for _, c := range batch {
		err := e.exec.Execute(ctx, func() error {
			return e.store.Delete(ctx, c.ID)
		})
		if err != nil {
			if errors.Is(err, retry.ErrTimeout) || ctx.Err() != nil {
				return err
			}
			e.log.Warn("delete failed", "id", c.ID, "name", c.Display, "error", err)
			out.Failures = append(out.Failures, Failure{Candidate: c, Err: err})
			continue
		}
		out.Deleted++
		e.log.Info("deleted", "id", c.ID, "trashed_at", c.TrashedAt, "name", c.Display)
	}
	return nil
}
