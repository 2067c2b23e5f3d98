// Package storetest provides a scripted in-memory trash store for tests.
package storetest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dev-tams/trashkit/internal/cursor"
	"github.com/dev-tams/trashkit/internal/store"
)

// Store serves pre-scripted feed pages and item metadata, records every
// deletion in order, and lets tests inject per-item failures.
type Store struct {
	Head     cursor.Token
	Pages    map[cursor.Token]store.ChangePage
	Items    map[string]store.Item
	Children map[string][]store.Item
	TrashSet []store.Item

	DeleteErrs map[string]error
	ItemErrs   map[string]error

	Deleted []string

	HeadCalls     int
	ChangesCalls  int
	ItemCalls     int
	ChildrenCalls int
	TrashedCalls  int
	DeleteCalls   int
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		Pages:      map[cursor.Token]store.ChangePage{},
		Items:      map[string]store.Item{},
		Children:   map[string][]store.Item{},
		DeleteErrs: map[string]error{},
		ItemErrs:   map[string]error{},
	}
}

func (s *Store) HeadToken(ctx context.Context) (cursor.Token, error) {
	s.HeadCalls++
	return s.Head, nil
}

func (s *Store) Changes(ctx context.Context, from cursor.Token, pageSize int, myDriveOnly bool) (store.ChangePage, error) {
	s.ChangesCalls++
	page, ok := s.Pages[from]
	if !ok {
		return store.ChangePage{}, fmt.Errorf("storetest: no page scripted for token %s", from)
	}
	return page, nil
}

func (s *Store) Item(ctx context.Context, id string) (store.Item, error) {
	s.ItemCalls++
	if err := s.ItemErrs[id]; err != nil {
		return store.Item{}, err
	}
	it, ok := s.Items[id]
	if !ok {
		return store.Item{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return it, nil
}

func (s *Store) TrashedChildren(ctx context.Context, parentID, pageToken string) (store.ItemPage, error) {
	s.ChildrenCalls++
	return store.ItemPage{Items: s.Children[parentID]}, nil
}

// Trashed serves TrashSet in pageSize chunks; the page token is the offset.
func (s *Store) Trashed(ctx context.Context, pageToken string, pageSize int) (store.ItemPage, error) {
	s.TrashedCalls++
	offset := 0
	if pageToken != "" {
		var err error
		offset, err = strconv.Atoi(pageToken)
		if err != nil {
			return store.ItemPage{}, fmt.Errorf("storetest: bad page token %q", pageToken)
		}
	}
	if pageSize <= 0 || offset+pageSize > len(s.TrashSet) {
		return store.ItemPage{Items: s.TrashSet[offset:]}, nil
	}
	return store.ItemPage{
		Items:         s.TrashSet[offset : offset+pageSize],
		NextPageToken: strconv.Itoa(offset + pageSize),
	}, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.DeleteCalls++
	if err := s.DeleteErrs[id]; err != nil {
		return err
	}
	s.Deleted = append(s.Deleted, id)
	return nil
}

// BatchStore adds the batched-deletion capability on top of Store. BatchErrs
// holds whole-batch transport failures consumed one per call.
type BatchStore struct {
	*Store

	BatchErrs  []error
	BatchCalls int
	BatchSizes []int
}

var _ store.BatchDeleter = (*BatchStore)(nil)

func NewBatch() *BatchStore {
	return &BatchStore{Store: New()}
}

func (s *BatchStore) DeleteBatch(ctx context.Context, ids []string) ([]store.DeleteResult, error) {
	s.BatchCalls++
	s.BatchSizes = append(s.BatchSizes, len(ids))

	if len(s.BatchErrs) > 0 {
		err := s.BatchErrs[0]
		s.BatchErrs = s.BatchErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	results := make([]store.DeleteResult, 0, len(ids))
	for _, id := range ids {
		res := store.DeleteResult{ID: id}
		if err := s.DeleteErrs[id]; err != nil {
			res.Err = err
		} else {
			s.Deleted = append(s.Deleted, id)
		}
		results = append(results, res)
	}
	return results, nil
}
