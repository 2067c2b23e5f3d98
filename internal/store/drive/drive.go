// Package drive implements the trash store over the Google Drive v3 API.
package drive

import (
	"context"
	"errors"
	"fmt"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dev-tams/trashkit/internal/cursor"
	"github.com/dev-tams/trashkit/internal/store"
)

const (
	changeFields  = "nextPageToken,newStartPageToken,changes(fileId,time,file(name,parents,explicitlyTrashed,ownedByMe))"
	trashedQuery  = "trashed=true and 'me' in owners"
	childrenQuery = "'%s' in parents and trashed=true"
)

type Store struct {
	svc *driveapi.Service
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	svc, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return &Store{svc: svc}, nil
}

func (s *Store) HeadToken(ctx context.Context) (cursor.Token, error) {
	resp, err := s.svc.Changes.GetStartPageToken().Context(ctx).Do()
	if err != nil {
		return 0, mapErr(err)
	}
	return cursor.Parse(resp.StartPageToken)
}

func (s *Store) Changes(ctx context.Context, from cursor.Token, pageSize int, myDriveOnly bool) (store.ChangePage, error) {
	resp, err := s.svc.Changes.List(from.String()).
		IncludeRemoved(false).
		PageSize(int64(pageSize)).
		RestrictToMyDrive(myDriveOnly).
		Fields(changeFields).
		Context(ctx).Do()
	if err != nil {
		return store.ChangePage{}, mapErr(err)
	}

	page := store.ChangePage{Events: make([]store.ChangeEvent, 0, len(resp.Changes))}
	for _, c := range resp.Changes {
		if c.File == nil {
			continue
		}
		ev := store.ChangeEvent{
			ItemID:            c.FileId,
			TrashedAt:         c.Time,
			Name:              c.File.Name,
			ExplicitlyTrashed: c.File.ExplicitlyTrashed,
			OwnedByMe:         c.File.OwnedByMe,
		}
		if len(c.File.Parents) > 0 {
			ev.ParentID = c.File.Parents[0]
		}
		page.Events = append(page.Events, ev)
	}

	if page.NextToken, err = cursor.Parse(resp.NextPageToken); err != nil {
		return store.ChangePage{}, err
	}
	if page.NewHead, err = cursor.Parse(resp.NewStartPageToken); err != nil {
		return store.ChangePage{}, err
	}
	return page, nil
}

func (s *Store) Item(ctx context.Context, id string) (store.Item, error) {
	f, err := s.svc.Files.Get(id).Fields("name,parents").Context(ctx).Do()
	if err != nil {
		return store.Item{}, mapErr(err)
	}
	it := store.Item{ID: id, Name: f.Name}
	if len(f.Parents) > 0 {
		it.ParentID = f.Parents[0]
	}
	return it, nil
}

func (s *Store) TrashedChildren(ctx context.Context, parentID, pageToken string) (store.ItemPage, error) {
	resp, err := s.svc.Files.List().
		Q(fmt.Sprintf(childrenQuery, parentID)).
		PageToken(pageToken).
		PageSize(1000).
		Fields("nextPageToken,files(id,name)").
		Context(ctx).Do()
	if err != nil {
		return store.ItemPage{}, mapErr(err)
	}
	return filePage(resp), nil
}

func (s *Store) Trashed(ctx context.Context, pageToken string, pageSize int) (store.ItemPage, error) {
	resp, err := s.svc.Files.List().
		Q(trashedQuery).
		PageToken(pageToken).
		PageSize(int64(pageSize)).
		Fields("nextPageToken,files(id,name,parents,viewedByMeTime)").
		Context(ctx).Do()
	if err != nil {
		return store.ItemPage{}, mapErr(err)
	}
	return filePage(resp), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return mapErr(err)
	}
	return nil
}

func filePage(resp *driveapi.FileList) store.ItemPage {
	page := store.ItemPage{
		Items:         make([]store.Item, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, f := range resp.Files {
		it := store.Item{ID: f.Id, Name: f.Name, LastOpened: f.ViewedByMeTime}
		if len(f.Parents) > 0 {
			it.ParentID = f.Parents[0]
		}
		page.Items = append(page.Items, it)
	}
	return page
}

// mapErr folds Drive API failures into the store's error taxonomy: 5xx is
// transient, 401/403 is auth, 404 is gone. Everything else passes through.
func mapErr(err error) error {
	var ge *googleapi.Error
	if !errors.As(err, &ge) {
		return err
	}
	switch {
	case ge.Code >= 500:
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	case ge.Code == 401 || ge.Code == 403:
		return fmt.Errorf("%w: %v", store.ErrAuth, err)
	case ge.Code == 404:
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	default:
		return err
	}
}
