package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordRunRoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	run := domain.RunRecord{
		RunID:           "run-1",
		Operation:       "dedup",
		State:           domain.StateDone,
		Processed:       120,
		DuplicatesFound: 12,
		Removed:         11,
		Errors:          1,
		StartedAt:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2024, 6, 1, 9, 2, 0, 0, time.UTC),
	}
	require.NoError(t, store.RecordRun(ctx, run))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Operation, got.Operation)
	assert.Equal(t, domain.StateDone, got.State)
	assert.Equal(t, run.Processed, got.Processed)
	assert.Equal(t, run.DuplicatesFound, got.DuplicatesFound)
	assert.Equal(t, run.Removed, got.Removed)
	assert.Equal(t, run.Errors, got.Errors)
	assert.True(t, got.StartedAt.Equal(run.StartedAt))
	assert.True(t, got.FinishedAt.Equal(run.FinishedAt))
}

func TestRecordRunUpserts(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	started := time.Now().UTC()

	run := domain.RunRecord{RunID: "run-1", Operation: "dedup",
		State: domain.StateFailed, StartedAt: started, FinishedAt: started}
	require.NoError(t, store.RecordRun(ctx, run))

	run.State = domain.StateDone
	run.Processed = 50
	require.NoError(t, store.RecordRun(ctx, run))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StateDone, runs[0].State)
	assert.Equal(t, 50, runs[0].Processed)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRun(ctx, domain.RunRecord{
			RunID:      string(rune('a' + i)),
			Operation:  "purge",
			State:      domain.StateDone,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}))
	}

	runs, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "e", runs[0].RunID)
	assert.Equal(t, "d", runs[1].RunID)
	assert.Equal(t, "c", runs[2].RunID)
}

func TestRecordRemovals(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRemovals(ctx, "run-1", nil))
	require.NoError(t, store.RecordRemovals(ctx, "run-1", []domain.Removal{
		{RecordID: "p1", Key: "sha:abc", Reason: "hash"},
		{RecordID: "p2", Key: "fix|proj|2024-06-01", Reason: "composite"},
	}))

	rows, err := store.db.QueryContext(ctx,
		"SELECT record_id, dedup_key, reason FROM removals WHERE run_id = ? ORDER BY record_id", "run-1")
	require.NoError(t, err)
	defer rows.Close()

	var got []domain.Removal
	for rows.Next() {
		var rem domain.Removal
		require.NoError(t, rows.Scan(&rem.RecordID, &rem.Key, &rem.Reason))
		got = append(got, rem)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)
	assert.Equal(t, "sha:abc", got[0].Key)
	assert.Equal(t, "composite", got[1].Reason)
}
