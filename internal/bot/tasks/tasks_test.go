package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/database"
)

type fakeStore struct {
	database.Store

	err        error
	stale      int64
	cutoff     time.Time
	maintained int
}

func (f *fakeStore) RunSQLMaintenance(context.Context) error {
	f.maintained++
	return f.err
}

func (f *fakeStore) CleanupStaleImports(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.stale, f.err
}

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newDeps(store database.Store, cfg *config.SchedulerConfig) TaskDeps {
	return TaskDeps{
		Logger: slog.New(slog.DiscardHandler),
		Store:  store,
		Config: cfg,
		Now:    func() time.Time { return now },
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newDeps(&fakeStore{}, nil))
	assert.Len(t, tasks, 2)
	assert.Contains(t, tasks, SQLMaintenance)
	assert.Contains(t, tasks, ImportCleanup)
}

func TestSchedules(t *testing.T) {
	t.Parallel()

	got := Schedules(config.SchedulerConfig{SQLMaintenance: "0 3 * * *"})
	assert.Equal(t, map[string]string{SQLMaintenance: "0 3 * * *", ImportCleanup: ""}, got)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	task := RegisterAllTasks(newDeps(store, nil))[SQLMaintenance]
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, store.maintained)

	store.err = errors.New("database is locked")
	err := task(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}

func TestImportCleanupTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    *config.SchedulerConfig
		cutoff time.Time
	}{
		{name: "configured age", cfg: &config.SchedulerConfig{StaleImportAge: 30 * time.Minute}, cutoff: now.Add(-30 * time.Minute)},
		{name: "default age", cutoff: now.Add(-time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{stale: 2}
			task := RegisterAllTasks(newDeps(store, tt.cfg))[ImportCleanup]
			require.NoError(t, task(context.Background()))
			assert.Equal(t, tt.cutoff, store.cutoff)
		})
	}

	store := &fakeStore{err: errors.New("no such table")}
	err := RegisterAllTasks(newDeps(store, nil))[ImportCleanup](context.Background())
	assert.ErrorIs(t, err, store.err)
}
