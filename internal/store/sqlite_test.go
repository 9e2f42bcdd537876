package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "acmeplumbing")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	result := &model.RunResult{
		Profile: &model.ConsolidatedProfile{Company: "Acme Plumbing", Email: "hello@acmeplumbing.com"},
		Stages: []model.StageResult{
			{State: "bio_fetched", Status: model.StageStatusComplete, Fragments: 1},
		},
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "acmeplumbing", got.Handle)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Acme Plumbing", got.Result.Profile.Company)
	require.Len(t, got.Result.Stages, 1)
	assert.Equal(t, "bio_fetched", got.Result.Stages[0].State)
}

func TestSQLite_FailedResultMarksRunFailed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "ghosthandle")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunResult(ctx, run.ID, &model.RunResult{Error: "profile not found"}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
}

func TestSQLite_UpdateMissingRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.Error(t, st.UpdateRunStatus(ctx, "no-such-run", model.RunStatusRunning))
	assert.Error(t, st.UpdateRunResult(ctx, "no-such-run", &model.RunResult{}))
}

func TestSQLite_ListRunsFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "alpha")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "beta")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, a.ID, model.RunStatusRunning))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "alpha", running[0].Handle)

	byHandle, err := st.ListRuns(ctx, RunFilter{Handle: "beta"})
	require.NoError(t, err)
	require.Len(t, byHandle, 1)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_SourceCache_SetGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	payload := []byte(`{"name":"Acme Plumbing LLC"}`)
	require.NoError(t, st.SetCachedSource(ctx, CacheSourceLinkedIn, "https://linkedin.com/company/acme", payload, time.Hour))

	got, err := st.GetCachedSource(ctx, CacheSourceLinkedIn, "https://linkedin.com/company/acme")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))

	// Same key under a different source is a separate entry.
	other, err := st.GetCachedSource(ctx, CacheSourceFacebook, "https://linkedin.com/company/acme")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSQLite_SourceCache_UpsertReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedSource(ctx, CacheSourceFacebook, "https://facebook.com/acme", []byte(`{"v":1}`), time.Hour))
	require.NoError(t, st.SetCachedSource(ctx, CacheSourceFacebook, "https://facebook.com/acme", []byte(`{"v":2}`), time.Hour))

	got, err := st.GetCachedSource(ctx, CacheSourceFacebook, "https://facebook.com/acme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))
}

func TestSQLite_SourceCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedSource(ctx, CacheSourceFacebook, "https://facebook.com/old", []byte(`{}`), -time.Hour))

	got, err := st.GetCachedSource(ctx, CacheSourceFacebook, "https://facebook.com/old")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := st.DeleteExpiredSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_SourceCache_Miss(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCachedSource(context.Background(), CacheSourceLinkedIn, "https://linkedin.com/company/none")
	require.NoError(t, err)
	assert.Nil(t, got)
}
