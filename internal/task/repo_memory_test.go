package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

func newRepo(t *testing.T) (*MemoryRepo, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewMemoryRepo(clk), clk
}

func TestCreateAppliesDefaults(t *testing.T) {
	repo, clk := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{Title: "Laundry"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusTodo, created.Status)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.NotNil(t, created.Dependencies)
	assert.Equal(t, clk.Now(), created.CreatedAt)
}

func TestCreateValidatesDependencies(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Task{Title: "a"})
	require.NoError(t, err)

	// Duplicate ids collapse to one edge.
	b, err := repo.Create(ctx, model.Task{Title: "b", Dependencies: []model.TaskID{a.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, []model.TaskID{a.ID}, b.Dependencies)
}

func TestUpdatePatchSemantics(t *testing.T) {
	repo, clk := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{Title: "Original", Category: "home", DueDate: "2026-03-05"})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	title := "Renamed"
	empty := ""
	updated, err := repo.Update(ctx, created.ID, Patch{Title: &title, DueDate: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Empty(t, updated.DueDate)
	// Untouched fields survive.
	assert.Equal(t, "home", updated.Category)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateReminderChangeRearms(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		Title:           "Due soon",
		DueDate:         "2026-03-01",
		ReminderMinutes: model.Reminder15m,
	})
	require.NoError(t, err)

	won, err := repo.MarkReminderSent(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, won)

	offset := model.Reminder1h
	updated, err := repo.Update(ctx, created.ID, Patch{ReminderMinutes: &offset})
	require.NoError(t, err)
	assert.False(t, updated.ReminderSent)

	// Same offset does not reset the flag.
	_, err = repo.MarkReminderSent(ctx, created.ID)
	require.NoError(t, err)
	updated, err = repo.Update(ctx, created.ID, Patch{ReminderMinutes: &offset})
	require.NoError(t, err)
	assert.True(t, updated.ReminderSent)
}

func TestMarkReminderSentIsAtMostOnce(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{Title: "a", ReminderMinutes: model.Reminder15m})
	require.NoError(t, err)

	won, err := repo.MarkReminderSent(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkReminderSent(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, won)

	_, err = repo.MarkReminderSent(ctx, "task_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteScrubsDependencyEdges(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, model.Task{Title: "b", Dependencies: []model.TaskID{a.ID}})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)
}

func TestAddDependencyGates(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, model.Task{Title: "b"})
	require.NoError(t, err)

	_, err = repo.AddDependency(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrSelfDependency)

	got, err := repo.AddDependency(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.TaskID{b.ID}, got.Dependencies)

	_, err = repo.AddDependency(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestRemoveDependency(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, model.Task{Title: "b", Dependencies: []model.TaskID{a.ID}})
	require.NoError(t, err)

	got, err := repo.RemoveDependency(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)
}

func TestListFiltersByProject(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Task{Title: "a", ProjectID: "proj_1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{Title: "b"})
	require.NoError(t, err)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.List(ctx, ListFilter{ProjectID: "proj_1"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "a", scoped[0].Title)
}

func TestSetStatusAndTogglePersist(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{Title: "a"})
	require.NoError(t, err)

	got, err := repo.SetStatus(ctx, created.ID, model.StatusInProgress, "user_1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	_, err = repo.SetStatus(ctx, created.ID, model.Status("review"), "user_1")
	require.NoError(t, err)

	_, err = repo.SetStatus(ctx, created.ID, model.StatusTodo, "user_1")
	assert.ErrorIs(t, err, ErrBadTransition)

	got, err = repo.Toggle(ctx, created.ID, "user_1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)

	got, err = repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.NotEmpty(t, got.ProgressUpdates)
}
