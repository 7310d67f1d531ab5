package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_ScheduleCron(t *testing.T) {
	t.Run("returns job id for valid cron", func(t *testing.T) {
		s := newTestScheduler(t)
		id, err := s.ScheduleCron("test", "0 */4 * * *", func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects invalid cron", func(t *testing.T) {
		s := newTestScheduler(t)
		_, err := s.ScheduleCron("test", "this is not a cron", func() {})
		require.Error(t, err)
		require.True(t, errors.HasCategory(err, errors.CategoryDaemon))
	})
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s := newTestScheduler(t)
		id, err := s.ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s := newTestScheduler(t)
		_, err := s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
		require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	})
}

func TestScheduler_ScheduleOnceRuns(t *testing.T) {
	s := newTestScheduler(t)
	fired := make(chan struct{})
	_, err := s.ScheduleOnce("once", 10*time.Millisecond, func() { close(fired) })
	require.NoError(t, err)
	s.Start()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("one-time job did not run")
	}
}

func TestScheduler_RemoveAndNextRun(t *testing.T) {
	s := newTestScheduler(t)
	id, err := s.ScheduleEvery("every", time.Hour, func() {})
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return !s.NextRun(id).IsZero() }, 2*time.Second, 10*time.Millisecond)

	s.Remove(id)
	require.Eventually(t, func() bool { return s.NextRun(id).IsZero() }, 2*time.Second, 10*time.Millisecond)
	s.Remove("unknown")
	require.True(t, s.NextRun("unknown").IsZero())
}
