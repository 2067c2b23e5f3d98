package globber

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
)

const listPageSize = 1000

// Filter is the per-pattern selection criteria. A zero MaxDateOpened
// disables the date cutoff; an empty RequiredParent disables the ancestor
// constraint.
type Filter struct {
	Pattern        *Pattern
	MaxDateOpened  time.Time
	RequiredParent string
}

// Engine lists the whole owned trash set and filters it. The ancestor cache
// persists across Select calls within one run, so several patterns walking
// the same folder tree share lookups.
type Engine struct {
	store   store.Store
	exec    *retry.Executor
	log     *slog.Logger
	parents map[string]store.Item
}

func NewEngine(st store.Store, exec *retry.Executor, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:   st,
		exec:    exec,
		log:     log,
		parents: map[string]store.Item{},
	}
}

// Select returns the matching trashed items ascending by last-opened time,
// never-opened items first.
func (e *Engine) Select(ctx context.Context, f Filter) ([]store.Item, error) {
	if f.Pattern == nil {
		return nil, fmt.Errorf("globber: filter needs a pattern")
	}

	var matched []store.Item
	pageToken := ""
	for {
		var page store.ItemPage
		err := e.exec.Execute(ctx, func() error {
			var err error
			page, err = e.store.Trashed(ctx, pageToken, listPageSize)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list trashed items: %w", err)
		}

		for _, it := range page.Items {
			if !f.Pattern.Match(it.Name) {
				continue
			}
			ok, err := e.passesDate(it, f.MaxDateOpened)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if f.RequiredParent != "" && !e.underParent(ctx, it, f.RequiredParent) {
				continue
			}
			matched = append(matched, it)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	// Unset last-opened sorts first: the empty string orders before any
	// RFC 3339 timestamp.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].LastOpened < matched[j].LastOpened
	})
	return matched, nil
}

// passesDate excludes items last opened on or after the cutoff; items never
// opened always pass.
func (e *Engine) passesDate(it store.Item, cutoff time.Time) (bool, error) {
	if cutoff.IsZero() || it.LastOpened == "" {
		return true, nil
	}
	opened, err := time.Parse(time.RFC3339, it.LastOpened)
	if err != nil {
		return false, fmt.Errorf("malformed last-opened time %q for item %s: %w", it.LastOpened, it.ID, err)
	}
	return opened.Before(cutoff), nil
}

// underParent walks the ancestor chain looking for a folder with the given
// name. An ancestor that has become inaccessible ends the walk as a miss,
// not an error.
func (e *Engine) underParent(ctx context.Context, it store.Item, name string) bool {
	parentID := it.ParentID
	for parentID != "" {
		folder, ok := e.parents[parentID]
		if !ok {
			var fetched store.Item
			err := e.exec.Execute(ctx, func() error {
				var err error
				fetched, err = e.store.Item(ctx, parentID)
				return err
			})
			if err != nil {
				e.log.Debug("ancestor lookup failed, excluding item", "item", it.ID, "ancestor", parentID, "error", err)
				return false
			}
			folder = fetched
			e.parents[parentID] = folder
		}
		if folder.Name == name {
			return true
		}
		parentID = folder.ParentID
	}
	return false
}
