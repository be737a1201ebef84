package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/archtree/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGetRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &Run{
		ArchivePath:   "/backups/docs.zip",
		PlanFile:      "plan.txt",
		StartedAt:     time.Now().Add(-time.Hour).UTC(),
		Duration:      90 * time.Second,
		TotalExpected: 10,
		TotalArchived: 8,
		Matched:       8,
		Missing:       2,
		SuccessRate:   80.0,
		MissingFiles:  []string{"/data/a.txt", "/data/b.txt"},
	}
	require.NoError(t, store.RecordRun(ctx, first))
	assert.NotEmpty(t, first.ID, "RecordRun should assign an ID")

	second := &Run{
		ArchivePath:   "/backups/docs.zip",
		StartedAt:     time.Now().UTC(),
		TotalExpected: 10,
		TotalArchived: 10,
		Matched:       10,
		SuccessRate:   100.0,
		Complete:      true,
	}
	require.NoError(t, store.RecordRun(ctx, second))

	runs, err := store.GetRuns(ctx, "/backups/docs.zip")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first
	assert.Equal(t, second.ID, runs[0].ID)
	assert.True(t, runs[0].Complete)
	assert.Empty(t, runs[0].MissingFiles)

	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, "plan.txt", runs[1].PlanFile)
	assert.Equal(t, 90*time.Second, runs[1].Duration)
	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt"}, runs[1].MissingFiles)
	assert.InDelta(t, 80.0, runs[1].SuccessRate, 0.001)
}

func TestGetRunsFiltersByArchive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, &Run{ArchivePath: "/backups/a.zip", StartedAt: time.Now().UTC()}))
	require.NoError(t, store.RecordRun(ctx, &Run{ArchivePath: "/backups/b.zip", StartedAt: time.Now().UTC()}))

	runs, err := store.GetRuns(ctx, "/backups/a.zip")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/backups/a.zip", runs[0].ArchivePath)
}

func TestLatestRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	latest, err := store.LatestRun(ctx, "/backups/none.zip")
	require.NoError(t, err)
	assert.Nil(t, latest)

	old := &Run{ArchivePath: "/backups/docs.zip", StartedAt: time.Now().Add(-2 * time.Hour).UTC()}
	recent := &Run{ArchivePath: "/backups/docs.zip", StartedAt: time.Now().UTC(), Complete: true}
	require.NoError(t, store.RecordRun(ctx, old))
	require.NoError(t, store.RecordRun(ctx, recent))

	latest, err = store.LatestRun(ctx, "/backups/docs.zip")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, recent.ID, latest.ID)
}

func TestListRecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := &Run{
			ArchivePath: "/backups/docs.zip",
			StartedAt:   time.Now().Add(time.Duration(-i) * time.Minute).UTC(),
		}
		require.NoError(t, store.RecordRun(ctx, run))
	}

	runs, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &Run{ArchivePath: "/backups/docs.zip", StartedAt: time.Now().AddDate(0, 0, -120).UTC()}
	recent := &Run{ArchivePath: "/backups/docs.zip", StartedAt: time.Now().UTC()}
	require.NoError(t, store.RecordRun(ctx, old))
	require.NoError(t, store.RecordRun(ctx, recent))

	deleted, err := store.Prune(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := store.GetRuns(ctx, "/backups/docs.zip")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, recent.ID, runs[0].ID)
}

func TestPruneKeepEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, &Run{ArchivePath: "/backups/docs.zip", StartedAt: time.Now().AddDate(-1, 0, 0).UTC()}))

	deleted, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestNewRunFromResult(t *testing.T) {
	result := &models.VerificationResult{
		MissingFiles:  []string{"/data/b.txt"},
		ArchivedFiles: []string{"/data/a.txt"},
		TotalExpected: 2,
		TotalArchived: 1,
	}

	started := time.Now().UTC()
	run := NewRun("/backups/docs.zip", "plan.md", started, 5*time.Second, result)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "/backups/docs.zip", run.ArchivePath)
	assert.Equal(t, "plan.md", run.PlanFile)
	assert.Equal(t, 2, run.TotalExpected)
	assert.Equal(t, 1, run.TotalArchived)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, 1, run.Missing)
	assert.InDelta(t, 50.0, run.SuccessRate, 0.001)
	assert.False(t, run.Complete)
	assert.Equal(t, []string{"/data/b.txt"}, run.MissingFiles)
}
