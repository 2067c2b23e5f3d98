// Package store abstracts the remote trash backend: a position-addressable
// change feed plus item metadata, listing, and deletion.
package store

import (
	"context"
	"errors"

	"github.com/dev-tams/trashkit/internal/cursor"
)

var (
	// ErrNotFound marks an item that no longer exists remotely. Deleting an
	// already-absent item surfaces this and is not data loss.
	ErrNotFound = errors.New("item not found")

	// ErrAuth marks an authentication or authorization failure. Never
	// retried at the call level; the run loop may retry the whole run.
	ErrAuth = errors.New("authentication failed")

	// ErrBackend marks a transient server-side failure worth retrying.
	ErrBackend = errors.New("backend unavailable")
)

func IsTransient(err error) bool { return errors.Is(err, ErrBackend) }

func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// ChangeEvent is one entry in the change feed. Timestamps stay in the wire
// encoding (RFC 3339); consumers parse them so a malformed value fails where
// the age decision is made.
type ChangeEvent struct {
	ItemID            string
	TrashedAt         string
	Name              string
	ParentID          string // empty at hierarchy root
	ExplicitlyTrashed bool
	OwnedByMe         bool
}

// ChangePage is one page of the change feed. NextToken is zero on the final
// page, where NewHead carries the feed head captured by the backend.
type ChangePage struct {
	Events    []ChangeEvent
	NextToken cursor.Token
	NewHead   cursor.Token
}

type Item struct {
	ID         string
	Name       string
	ParentID   string // empty at hierarchy root
	LastOpened string // RFC 3339; empty when never opened
}

type ItemPage struct {
	Items         []Item
	NextPageToken string
}

type Store interface {
	// HeadToken returns the current head position of the change feed.
	HeadToken(ctx context.Context) (cursor.Token, error)

	// Changes lists feed events at and after from. myDriveOnly restricts the
	// scan to the primary hierarchy, excluding secondary roots.
	Changes(ctx context.Context, from cursor.Token, pageSize int, myDriveOnly bool) (ChangePage, error)

	// Item fetches name and parent for a single item.
	Item(ctx context.Context, id string) (Item, error)

	// TrashedChildren pages through the trashed direct children of parentID.
	TrashedChildren(ctx context.Context, parentID, pageToken string) (ItemPage, error)

	// Trashed pages through every trashed item owned by the caller,
	// independent of the change feed.
	Trashed(ctx context.Context, pageToken string, pageSize int) (ItemPage, error)

	// Delete permanently removes one item.
	Delete(ctx context.Context, id string) error
}

// DeleteResult reports the outcome for one id of a batched delete.
type DeleteResult struct {
	ID  string
	Err error
}

// BatchDeleter is an optional capability: stores that can fold several
// deletions into one round-trip implement it, discovered by type assertion.
// A non-nil error means the whole batch failed at the transport level and no
// per-item result is meaningful.
type BatchDeleter interface {
	DeleteBatch(ctx context.Context, ids []string) ([]DeleteResult, error)
}
