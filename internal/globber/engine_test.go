package globber

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dev-tams/trashkit/internal/retry"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/store/storetest"
)

func newEngine(st store.Store) *Engine {
	return NewEngine(st, &retry.Executor{Interval: time.Millisecond, Retryable: store.IsTransient}, nil)
}

func mustCompile(t *testing.T, glob string) *Pattern {
	t.Helper()
	p, err := Compile(glob)
	require.NoError(t, err)
	return p
}

func TestSelectFiltersByPattern(t *testing.T) {
	st := storetest.New()
	st.TrashSet = []store.Item{
		{ID: "1", Name: "report.json"},
		{ID: "2", Name: "report.jsonx"},
		{ID: "3", Name: "exe_1.json"},
	}

	got, err := newEngine(st).Select(context.Background(), Filter{Pattern: mustCompile(t, "*.json")})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestSelectPagesThroughWholeTrashSet(t *testing.T) {
	st := storetest.New()
	for i := 0; i < 2500; i++ {
		st.TrashSet = append(st.TrashSet, store.Item{ID: fmt.Sprintf("id-%d", i), Name: "x.json"})
	}

	got, err := newEngine(st).Select(context.Background(), Filter{Pattern: mustCompile(t, "*.json")})
	require.NoError(t, err)
	require.Len(t, got, 2500)
	require.Equal(t, 3, st.TrashedCalls)
}

func TestSelectDateCutoff(t *testing.T) {
	st := storetest.New()
	st.TrashSet = []store.Item{
		{ID: "old", Name: "a.json", LastOpened: "2023-06-01T10:00:00Z"},
		{ID: "boundary", Name: "b.json", LastOpened: "2024-01-01T00:00:00Z"},
		{ID: "recent", Name: "c.json", LastOpened: "2024-03-01T10:00:00Z"},
		{ID: "never", Name: "d.json"},
	}

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := newEngine(st).Select(context.Background(), Filter{
		Pattern:       mustCompile(t, "*.json"),
		MaxDateOpened: cutoff,
	})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, it := range got {
		ids[i] = it.ID
	}
	// Never-opened sorts first; on/after the cutoff is excluded.
	require.Equal(t, []string{"never", "old"}, ids)
}

func TestSelectOrdersByLastOpenedAscending(t *testing.T) {
	st := storetest.New()
	st.TrashSet = []store.Item{
		{ID: "b", Name: "b.json", LastOpened: "2023-09-01T00:00:00Z"},
		{ID: "a", Name: "a.json", LastOpened: "2023-03-01T00:00:00Z"},
		{ID: "n", Name: "n.json"},
	}

	got, err := newEngine(st).Select(context.Background(), Filter{Pattern: mustCompile(t, "*.json")})
	require.NoError(t, err)
	require.Equal(t, "n", got[0].ID)
	require.Equal(t, "a", got[1].ID)
	require.Equal(t, "b", got[2].ID)
}

func TestSelectRequiredParentWalksAncestors(t *testing.T) {
	st := storetest.New()
	st.Items["top"] = store.Item{ID: "top", Name: "Archive"}
	st.Items["mid"] = store.Item{ID: "mid", Name: "2023", ParentID: "top"}
	st.Items["other"] = store.Item{ID: "other", Name: "Inbox"}
	st.TrashSet = []store.Item{
		{ID: "in", Name: "a.json", ParentID: "mid"},
		{ID: "out", Name: "b.json", ParentID: "other"},
		{ID: "rootless", Name: "c.json"},
	}

	got, err := newEngine(st).Select(context.Background(), Filter{
		Pattern:        mustCompile(t, "*.json"),
		RequiredParent: "Archive",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "in", got[0].ID)
}

func TestSelectAncestorCacheSharedAcrossItems(t *testing.T) {
	st := storetest.New()
	st.Items["dir"] = store.Item{ID: "dir", Name: "Archive"}
	st.TrashSet = []store.Item{
		{ID: "1", Name: "a.json", ParentID: "dir"},
		{ID: "2", Name: "b.json", ParentID: "dir"},
		{ID: "3", Name: "c.json", ParentID: "dir"},
	}

	got, err := newEngine(st).Select(context.Background(), Filter{
		Pattern:        mustCompile(t, "*.json"),
		RequiredParent: "Archive",
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 1, st.ItemCalls)
}

func TestSelectInaccessibleAncestorExcludesItem(t *testing.T) {
	st := storetest.New()
	st.ItemErrs["gone"] = fmt.Errorf("%w: gone", store.ErrNotFound)
	st.TrashSet = []store.Item{
		{ID: "orphan", Name: "a.json", ParentID: "gone"},
	}

	got, err := newEngine(st).Select(context.Background(), Filter{
		Pattern:        mustCompile(t, "*.json"),
		RequiredParent: "Archive",
	})
	require.NoError(t, err)
	require.Empty(t, got)
}
