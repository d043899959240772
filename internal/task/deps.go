package task

import (
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// BlockResult is what the dependency resolver reports for one task.
type BlockResult struct {
	IsBlocked bool         `json:"isBlocked"`
	Blocking  []model.Task `json:"blockingTasks"`
}

// Blocking resolves the target task's dependencies against the full
// collection and returns every prerequisite that is not yet done.
// Unknown dependency ids are silently dropped and count as satisfied.
// Pure function: no mutation, O(len(dependencies)) lookups.
func Blocking(t model.Task, all []model.Task) BlockResult {
	if len(t.Dependencies) == 0 {
		return BlockResult{Blocking: []model.Task{}}
	}

	byID := indexByID(all)
	blocking := []model.Task{}
	for _, depID := range t.Dependencies {
		dep, ok := byID[depID]
		if !ok {
			continue
		}
		if dep.Status != model.StatusDone {
			blocking = append(blocking, dep)
		}
	}
	return BlockResult{
		IsBlocked: len(blocking) > 0,
		Blocking:  blocking,
	}
}

// WouldCycle reports whether adding the edge taskID -> dep would close a
// dependency cycle. Self-dependency is a cycle of length one. DFS with a
// visited set; unknown ids terminate their branch.
func WouldCycle(taskID, dep model.TaskID, all []model.Task) bool {
	if taskID == dep {
		return true
	}

	byID := indexByID(all)
	visited := map[model.TaskID]bool{}

	var reaches func(from model.TaskID) bool
	reaches = func(from model.TaskID) bool {
		if from == taskID {
			return true
		}
		if visited[from] {
			return false
		}
		visited[from] = true
		t, ok := byID[from]
		if !ok {
			return false
		}
		for _, next := range t.Dependencies {
			if reaches(next) {
				return true
			}
		}
		return false
	}

	return reaches(dep)
}

func indexByID(all []model.Task) map[model.TaskID]model.Task {
	byID := make(map[model.TaskID]model.Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	return byID
}
