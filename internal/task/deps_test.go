package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

func mk(id string, status model.Status, deps ...string) model.Task {
	t := model.Task{ID: model.TaskID(id), Status: status}
	for _, d := range deps {
		t.Dependencies = append(t.Dependencies, model.TaskID(d))
	}
	return t
}

func TestBlockingReportsOpenDependencies(t *testing.T) {
	all := []model.Task{
		mk("a", model.StatusDone),
		mk("b", model.StatusInProgress),
		mk("c", model.StatusTodo, "a", "b"),
	}

	res := Blocking(all[2], all)
	assert.True(t, res.IsBlocked)
	require.Len(t, res.Blocking, 1)
	assert.Equal(t, model.TaskID("b"), res.Blocking[0].ID)
}

func TestBlockingClearsWhenAllDone(t *testing.T) {
	all := []model.Task{
		mk("a", model.StatusDone),
		mk("c", model.StatusTodo, "a"),
	}

	res := Blocking(all[1], all)
	assert.False(t, res.IsBlocked)
	assert.Empty(t, res.Blocking)
}

func TestBlockingIgnoresUnknownIDs(t *testing.T) {
	all := []model.Task{
		mk("c", model.StatusTodo, "ghost"),
	}

	res := Blocking(all[0], all)
	assert.False(t, res.IsBlocked)
}

func TestBlockingNoDependencies(t *testing.T) {
	all := []model.Task{mk("c", model.StatusTodo)}
	res := Blocking(all[0], all)
	assert.False(t, res.IsBlocked)
	assert.Empty(t, res.Blocking)
}

func TestWouldCycleDirect(t *testing.T) {
	all := []model.Task{
		mk("a", model.StatusTodo, "b"),
		mk("b", model.StatusTodo),
	}
	// b -> a while a -> b closes the loop.
	assert.True(t, WouldCycle("b", "a", all))
	assert.False(t, WouldCycle("a", "b", all))
}

func TestWouldCycleTransitive(t *testing.T) {
	all := []model.Task{
		mk("a", model.StatusTodo, "b"),
		mk("b", model.StatusTodo, "c"),
		mk("c", model.StatusTodo),
	}
	assert.True(t, WouldCycle("c", "a", all))
	assert.False(t, WouldCycle("a", "c", all))
}

func TestWouldCycleSelf(t *testing.T) {
	all := []model.Task{mk("a", model.StatusTodo)}
	assert.True(t, WouldCycle("a", "a", all))
}
