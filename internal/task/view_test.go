package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

func viewFixture() []model.Task {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.Task{
		{ID: "t1", Title: "Buy groceries", Description: "milk and eggs", Status: model.StatusTodo,
			Priority: model.PriorityLow, Category: "home", DueDate: "2026-03-05", CreatedAt: base},
		{ID: "t2", Title: "Fix login bug", Status: model.StatusInProgress,
			Priority: model.PriorityHigh, Category: "work", DueDate: "2026-03-03", CreatedAt: base.Add(time.Hour)},
		{ID: "t3", Title: "Write report", Description: "quarterly numbers", Status: model.StatusDone,
			Priority: model.PriorityMedium, Category: "work", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "t4", Title: "Plan groceries budget", Status: model.StatusTodo,
			Priority: model.PriorityHigh, Category: "home", DueDate: "2026-03-03", CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, string(t.ID))
	}
	return out
}

func TestProcessTasksQueryMatchesTitleAndDescription(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{Query: "GROCERIES"}, Sort{})
	assert.ElementsMatch(t, []string{"t1", "t4"}, ids(out))

	out = ProcessTasks(viewFixture(), Filters{Query: "quarterly"}, Sort{})
	assert.Equal(t, []string{"t3"}, ids(out))
}

func TestProcessTasksStatusFilter(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{Status: "todo"}, Sort{})
	assert.ElementsMatch(t, []string{"t1", "t4"}, ids(out))

	// Legacy spelling maps to the canonical status.
	out = ProcessTasks(viewFixture(), Filters{Status: "completed"}, Sort{})
	assert.Equal(t, []string{"t3"}, ids(out))

	out = ProcessTasks(viewFixture(), Filters{Status: "all"}, Sort{})
	assert.Len(t, out, 4)
}

func TestProcessTasksFiltersCombineWithAnd(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{Query: "groceries", Status: "todo", Category: "home"}, Sort{})
	assert.ElementsMatch(t, []string{"t1", "t4"}, ids(out))

	out = ProcessTasks(viewFixture(), Filters{Query: "groceries", Category: "work"}, Sort{})
	assert.Empty(t, out)
}

func TestProcessTasksSortPriority(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{}, Sort{Key: SortPriority, Dir: Desc})
	require.Len(t, out, 4)
	// High first; the t2/t4 tie breaks on id descending under Desc.
	assert.Equal(t, []string{"t4", "t2", "t3", "t1"}, ids(out))
}

func TestProcessTasksSortDueDate(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{}, Sort{Key: SortDueDate, Dir: Asc})
	// t3 has no due date and sorts last.
	assert.Equal(t, []string{"t2", "t4", "t1", "t3"}, ids(out))
}

func TestProcessTasksSortCreated(t *testing.T) {
	out := ProcessTasks(viewFixture(), Filters{}, Sort{Key: SortCreated, Dir: Asc})
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, ids(out))

	out = ProcessTasks(viewFixture(), Filters{}, Sort{Key: SortCreated, Dir: Desc})
	assert.Equal(t, []string{"t4", "t3", "t2", "t1"}, ids(out))
}

func TestProcessTasksDoesNotMutateInput(t *testing.T) {
	in := viewFixture()
	_ = ProcessTasks(in, Filters{}, Sort{Key: SortPriority, Dir: Desc})
	assert.Equal(t, "t1", string(in[0].ID))
}
