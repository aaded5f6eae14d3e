package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	ctx := context.Background()
	conn, err := db.NewConnection(ctx, config.Database{Driver: db.SQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, store.New(conn, store.Options{}).Migrate(ctx, false))
	return NewTracker(conn)
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	start := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	id, err := tr.RecordRun(ctx, false, Run{
		StartedAt:         start,
		FinishedAt:        start.Add(90 * time.Second),
		Source:            "api",
		Metric:            "jaro",
		Fetched:           120,
		AreasAccepted:     100,
		VacanciesInserted: 118,
		VacanciesClosed:   3,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	run, err := tr.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 120, run.Fetched)
	assert.Equal(t, 3, run.VacanciesClosed)
	assert.Equal(t, 90*time.Second, run.Duration())

	_, err = tr.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRecentRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		_, err := tr.RecordRun(ctx, false, Run{ID: string(rune('a' + i)), StartedAt: start, FinishedAt: start})
		require.NoError(t, err)
	}

	runs, err := tr.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}
