package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dev-tams/trashkit/internal/config"
	"github.com/dev-tams/trashkit/internal/cursor"
	"github.com/dev-tams/trashkit/internal/scan"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/store/storetest"
	"github.com/dev-tams/trashkit/internal/sweep"
)

func oldTimestamp(days int) string {
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)
}

func sweepStore() *storetest.Store {
	st := storetest.New()
	st.Head = 900
	st.Pages[1] = store.ChangePage{
		Events: []store.ChangeEvent{
			{ItemID: "a", TrashedAt: oldTimestamp(60), Name: "a.txt", ExplicitlyTrashed: true, OwnedByMe: true},
			{ItemID: "b", TrashedAt: oldTimestamp(45), Name: "b.txt", ExplicitlyTrashed: true, OwnedByMe: true},
		},
		NewHead: 900,
	}
	return st
}

func sweepOpts(t *testing.T, mode sweep.Mode) SweepOptions {
	return SweepOptions{
		MaxAgeDays: 30,
		Mode:       mode,
		CursorPath: filepath.Join(t.TempDir(), "cursor"),
	}
}

func loadCursor(t *testing.T, path string) cursor.Token {
	t.Helper()
	tok, err := cursor.NewFile(path).Load()
	require.NoError(t, err)
	return tok
}

func TestRunSweepCommitsAfterOnFullSuccess(t *testing.T) {
	st := sweepStore()
	opts := sweepOpts(t, sweep.AutoConfirm)

	res, err := RunSweep(context.Background(), st, opts, nil, scan.NopReporter, nil, nil)
	require.NoError(t, err)
	require.True(t, res.Outcome.Drained)
	require.Equal(t, 2, res.Outcome.Deleted)
	require.Equal(t, cursor.Token(900), res.Committed)
	require.Equal(t, cursor.Token(900), loadCursor(t, opts.CursorPath))
	// newest trashed first
	require.Equal(t, []string{"b", "a"}, st.Deleted)
}

func TestRunSweepKeepsBeforeOnPartialFailure(t *testing.T) {
	st := sweepStore()
	st.DeleteErrs["a"] = fmt.Errorf("%w: a", store.ErrNotFound)
	opts := sweepOpts(t, sweep.AutoConfirm)

	res, err := RunSweep(context.Background(), st, opts, nil, scan.NopReporter, nil, nil)
	require.NoError(t, err)
	require.False(t, res.Outcome.Drained)
	require.Equal(t, 1, res.Outcome.Deleted)
	require.Len(t, res.Outcome.Failures, 1)
	require.Equal(t, res.Before, res.Committed)
	require.Equal(t, res.Before, loadCursor(t, opts.CursorPath))
}

func TestRunSweepViewOnlyNeverAdvancesPastBefore(t *testing.T) {
	st := sweepStore()
	opts := sweepOpts(t, sweep.ViewOnly)

	res, err := RunSweep(context.Background(), st, opts, nil, scan.NopReporter, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Outcome.Candidates)
	require.Zero(t, res.Outcome.Deleted)
	require.Zero(t, st.DeleteCalls)
	require.Equal(t, res.Before, res.Committed)
}

func TestRunSweepEmptyFeedCommitsHead(t *testing.T) {
	st := storetest.New()
	st.Head = 500
	st.Pages[1] = store.ChangePage{NewHead: 500}
	opts := sweepOpts(t, sweep.AutoConfirm)

	res, err := RunSweep(context.Background(), st, opts, nil, scan.NopReporter, nil, nil)
	require.NoError(t, err)
	require.True(t, res.Outcome.Drained)
	require.Equal(t, cursor.Token(500), loadCursor(t, opts.CursorPath))
}

func TestRunSweepResumesFromPersistedCursor(t *testing.T) {
	st := sweepStore()
	opts := sweepOpts(t, sweep.AutoConfirm)
	require.NoError(t, cursor.NewFile(opts.CursorPath).Save(900))
	st.Pages[900] = store.ChangePage{NewHead: 900}

	res, err := RunSweep(context.Background(), st, opts, nil, scan.NopReporter, nil, nil)
	require.NoError(t, err)
	require.Zero(t, res.Outcome.Candidates)
	require.Zero(t, st.DeleteCalls)
}

func TestRunGlobSweepDeletesMatchesInPages(t *testing.T) {
	st := storetest.New()
	for i := 0; i < 7; i++ {
		st.TrashSet = append(st.TrashSet, store.Item{ID: fmt.Sprintf("m-%d", i), Name: fmt.Sprintf("exe_%d.json", i)})
	}
	st.TrashSet = append(st.TrashSet, store.Item{ID: "keep", Name: "notes.txt"})

	cfg := &config.GlobConfig{
		MaxFilesPerDelete: 3,
		Globs:             []string{"exe_*.json"},
	}

	pages := 0
	confirm := func(n int) (bool, error) {
		pages++
		return true, nil
	}

	res, err := RunGlobSweep(context.Background(), st, cfg, GlobOptions{Mode: sweep.PromptConfirm}, confirm, nil)
	require.NoError(t, err)
	require.Equal(t, 7, res.Matched())
	require.Equal(t, 7, res.Deleted())
	require.Zero(t, res.Failed())
	require.Equal(t, 3, pages) // 3 + 3 + 1
	require.NotContains(t, st.Deleted, "keep")
}

func TestRunGlobSweepRejectsInvalidConfig(t *testing.T) {
	st := storetest.New()
	cfg := &config.GlobConfig{MaxFilesPerDelete: 100}

	_, err := RunGlobSweep(context.Background(), st, cfg, GlobOptions{Mode: sweep.AutoConfirm}, nil, nil)
	require.Error(t, err)
	require.Zero(t, st.DeleteCalls)
}
