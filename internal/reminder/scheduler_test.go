package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

type captureNotifier struct {
	kinds []string
}

func (n *captureNotifier) Broadcast(kind string, payload any) {
	n.kinds = append(n.kinds, kind)
}

type captureRecorder struct {
	events []string
}

func (r *captureRecorder) Record(event string, meta map[string]any) {
	r.events = append(r.events, event)
}

func newScheduler(t *testing.T, clk clock.Clock) (*Scheduler, task.Repo) {
	t.Helper()
	repo := task.NewMemoryRepo(clk)
	s := NewScheduler(repo, clk, time.UTC, zerolog.Nop())
	return s, repo
}

func TestSweepFiresDueReminder(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 13, 50, 0, 0, time.UTC))
	s, repo := newScheduler(t, clk)
	notifier := &captureNotifier{}
	recorder := &captureRecorder{}
	s.SetNotifier(notifier)
	s.SetRecorder(recorder)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		Title:           "Ship release notes",
		DueDate:         "2026-03-02",
		DueTime:         "14:00",
		ReminderMinutes: model.Reminder15m,
	})
	require.NoError(t, err)

	// Before the window opens nothing fires.
	clk.Set(time.Date(2026, 3, 2, 13, 40, 0, 0, time.UTC))
	fired, err := s.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, fired)

	clk.Set(time.Date(2026, 3, 2, 13, 45, 0, 0, time.UTC))
	fired, err = s.CheckOnce(ctx)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, created.ID, fired[0].ID)
	assert.Equal(t, []string{"reminder_fired"}, notifier.kinds)
	assert.Equal(t, []string{"reminder_fired"}, recorder.events)
}

func TestSweepFiresAtMostOnce(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC))
	s, repo := newScheduler(t, clk)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Task{
		Title:           "Review PR",
		DueDate:         "2026-03-02",
		DueTime:         "14:00",
		ReminderMinutes: model.Reminder1h,
	})
	require.NoError(t, err)

	fired, err := s.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	// Second sweep over the same window is silent.
	fired, err = s.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestSweepSkipsTasksWithoutReminder(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC))
	s, repo := newScheduler(t, clk)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Task{Title: "No reminder", DueDate: "2026-03-02"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{Title: "No due date", ReminderMinutes: model.Reminder15m})
	require.NoError(t, err)

	fired, err := s.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestCycleRearmsReminder(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 13, 50, 0, 0, time.UTC))
	s, repo := newScheduler(t, clk)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		Title:           "Standup prep",
		DueDate:         "2026-03-02",
		DueTime:         "14:00",
		ReminderMinutes: model.Reminder15m,
	})
	require.NoError(t, err)

	fired, err := s.CheckOnce(ctx)
	require.NoError(t, err)
	require.Len(t, fired, 1)

	// Cycling to a wider window resets the sent flag, so it fires again.
	_, err = repo.CycleReminder(ctx, created.ID)
	require.NoError(t, err)

	fired, err = s.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 1)
}

func TestStartRejectsBadExpression(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 13, 50, 0, 0, time.UTC))
	s, _ := newScheduler(t, clk)
	assert.Error(t, s.Start("not a cron expr"))
}

func TestStartAndStop(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 13, 50, 0, 0, time.UTC))
	s, _ := newScheduler(t, clk)
	require.NoError(t, s.Start("0 * * * * *"))
	s.Stop()
	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}
