// Package scan walks the remote change feed and selects trash candidates old
// enough to delete, producing the two cursor values that make interrupted
// runs safe to resume.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dev-tams/trashkit/internal/cursor"
	"github.com/dev-tams/trashkit/internal/resolve"
	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/sweep"
)

const (
	pageSizeLarge = 1000
	pageSizeSmall = 100
	// within this distance of the feed head, switch to small pages to avoid
	// overshooting the moving frontier
	pageSizeSwitchThreshold = 3000
)

// Reporter receives progress events during a scan. The core never renders;
// the caller decides how (or whether) to display these.
type Reporter interface {
	// ScanningDay is emitted when the scan moves to a new calendar day of
	// trash events (wire-format date prefix, yyyy-mm-dd).
	ScanningDay(day string)
	// Found is emitted for every selected candidate.
	Found(c sweep.Candidate)
}

type nopReporter struct{}

func (nopReporter) ScanningDay(string)    {}
func (nopReporter) Found(sweep.Candidate) {}

// NopReporter discards all progress events.
var NopReporter Reporter = nopReporter{}

type Options struct {
	MaxAge      time.Duration // minimum time in trash before an item qualifies
	MyDriveOnly bool          // restrict scope to the primary hierarchy
	FullPath    bool          // resolve full display paths for candidates
}

// Result carries the candidates of one scan plus the two resume positions.
// Before is always safe to resume from: nothing at or after it has been
// deleted. After is safe only once every candidate in this result was
// actually deleted.
type Result struct {
	Candidates []sweep.Candidate
	Before     cursor.Token
	After      cursor.Token
}

type Scanner struct {
	store    store.Store
	exec     *retry.Executor
	resolver *resolve.Resolver
	reporter Reporter
	log      *slog.Logger
	now      func() time.Time
}

func New(st store.Store, exec *retry.Executor, resolver *resolve.Resolver, reporter Reporter, log *slog.Logger) *Scanner {
	if reporter == nil {
		reporter = NopReporter
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		store:    st,
		exec:     exec,
		resolver: resolver,
		reporter: reporter,
		log:      log,
		now:      time.Now,
	}
}

// Scan pages through the change feed from the given cursor. Events are
// delivered in ascending trash-time order, so the first event younger than
// MaxAge ends the scan: everything after it is younger still. That event's
// page token becomes After, so it is re-examined next run.
//
// Before only advances while no candidate has been found; once the first
// candidate appears it freezes at the page preceding it. Resuming from
// Before therefore never skips a still-undeleted item, no matter how much of
// the deletion pass completed.
func (s *Scanner) Scan(ctx context.Context, from cursor.Token, opts Options) (Result, error) {
	head, err := s.headToken(ctx)
	if err != nil {
		return Result{}, err
	}
	now := s.now()

	if from.IsZero() {
		from = 1
	}
	res := Result{Before: from}

	day := ""
	pos := from
	pageSize := pageSizeLarge
	for !pos.IsZero() {
		if int64(head)-int64(pos) < pageSizeSwitchThreshold {
			pageSize = pageSizeSmall
		}

		page, err := s.changes(ctx, pos, pageSize, opts.MyDriveOnly)
		if err != nil {
			return Result{}, err
		}

		for _, ev := range page.Events {
			trashedAt, err := time.Parse(time.RFC3339, ev.TrashedAt)
			if err != nil {
				return Result{}, fmt.Errorf("malformed event timestamp %q for item %s: %w", ev.TrashedAt, ev.ItemID, err)
			}

			if now.Sub(trashedAt) < opts.MaxAge {
				// Too recent; the rest of the feed is younger. Resume here
				// next run.
				res.After = pos
				return res, nil
			}

			if d := dayOf(ev.TrashedAt); d != day {
				day = d
				s.reporter.ScanningDay(day)
			}

			if !ev.ExplicitlyTrashed || !ev.OwnedByMe {
				continue
			}

			display := ev.Name
			if opts.FullPath && s.resolver != nil {
				known := &store.Item{ID: ev.ItemID, Name: ev.Name, ParentID: ev.ParentID}
				display, err = s.resolver.Resolve(ctx, ev.ItemID, known)
				if err != nil {
					return Result{}, err
				}
			}

			c := sweep.Candidate{ID: ev.ItemID, TrashedAt: ev.TrashedAt, Display: display}
			res.Candidates = append(res.Candidates, c)
			s.reporter.Found(c)
		}

		pos = page.NextToken
		if len(res.Candidates) == 0 && !pos.IsZero() {
			res.Before = pos
		}
		if pos.IsZero() && !page.NewHead.IsZero() {
			head = page.NewHead
		}
	}

	// Feed exhausted without hitting the age cutoff.
	res.After = head
	if len(res.Candidates) == 0 {
		res.Before = head
	}
	return res, nil
}

func (s *Scanner) headToken(ctx context.Context) (cursor.Token, error) {
	var head cursor.Token
	err := s.exec.Execute(ctx, func() error {
		var err error
		head, err = s.store.HeadToken(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetch feed head: %w", err)
	}
	return head, nil
}

func (s *Scanner) changes(ctx context.Context, from cursor.Token, pageSize int, myDriveOnly bool) (store.ChangePage, error) {
	var page store.ChangePage
	err := s.exec.Execute(ctx, func() error {
		var err error
		page, err = s.store.Changes(ctx, from, pageSize, myDriveOnly)
		return err
	})
	if err != nil {
		return store.ChangePage{}, fmt.Errorf("list changes from %s: %w", from, err)
	}
	return page, nil
}

func dayOf(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
