// Package resolve turns item ids into hierarchical display paths, memoizing
// aggressively because candidate sets tend to cluster under a few folders.
package resolve

import (
	"context"
	"fmt"

	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
)

const pathSep = "/"

type entry struct {
	path     string
	hits     int
	expanded bool
}

// Resolver caches resolved paths for the duration of one run. When an id is
// looked up a second time, all of its trashed children are pre-populated in
// one listing pass, which amortizes the per-child metadata calls when a
// folder and many of its descendants are all candidates.
//
// Paths are current, not historical: if an ancestor folder has moved since
// the item was trashed, the resolved path reflects the new location.
type Resolver struct {
	store store.Store
	exec  *retry.Executor
	cache map[string]*entry
}

func New(st store.Store, exec *retry.Executor) *Resolver {
	return &Resolver{
		store: st,
		exec:  exec,
		cache: map[string]*entry{},
	}
}

// Resolve returns the full display path for id. known carries attributes the
// caller already holds (feed events include name and parent), avoiding a
// redundant metadata call on a cache miss.
func (r *Resolver) Resolve(ctx context.Context, id string, known *store.Item) (string, error) {
	if e, ok := r.cache[id]; ok {
		if e.hits >= 1 && !e.expanded {
			if err := r.expand(ctx, id, e); err != nil {
				return "", err
			}
		}
		e.hits++
		return e.path, nil
	}

	var it store.Item
	if known != nil {
		it = *known
	} else {
		var err error
		it, err = r.fetchItem(ctx, id)
		if err != nil {
			return "", err
		}
	}

	path := it.Name
	if it.ParentID != "" {
		parentPath, err := r.Resolve(ctx, it.ParentID, nil)
		if err != nil {
			return "", err
		}
		path = parentPath + pathSep + it.Name
	}

	r.cache[id] = &entry{path: path, hits: 1}
	return path, nil
}

// expand caches the paths of every trashed child of id. Children enter the
// cache with a zero hit count and become ordinary hits on first real lookup.
func (r *Resolver) expand(ctx context.Context, id string, e *entry) error {
	pageToken := ""
	for {
		var page store.ItemPage
		err := r.exec.Execute(ctx, func() error {
			var err error
			page, err = r.store.TrashedChildren(ctx, id, pageToken)
			return err
		})
		if err != nil {
			return fmt.Errorf("expand children of %s: %w", id, err)
		}

		for _, child := range page.Items {
			if _, ok := r.cache[child.ID]; ok {
				continue
			}
			r.cache[child.ID] = &entry{path: e.path + pathSep + child.Name}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	e.expanded = true
	return nil
}

func (r *Resolver) fetchItem(ctx context.Context, id string) (store.Item, error) {
	var it store.Item
	err := r.exec.Execute(ctx, func() error {
		var err error
		it, err = r.store.Item(ctx, id)
		return err
	})
	if err != nil {
		return store.Item{}, fmt.Errorf("resolve item %s: %w", id, err)
	}
	return it, nil
}
