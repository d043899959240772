package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// MemoryRepo is the map-backed fallback store; it carries the same contract
// as SQLRepo with no consistency guarantee between the two.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
	clk   clock.Clock
}

func NewMemoryRepo(clk clock.Clock) *MemoryRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryRepo{
		tasks: map[model.TaskID]model.Task{},
		clk:   clk,
	}
}

func newTaskID() model.TaskID {
	return model.TaskID("task_" + uuid.NewString())
}

func (r *MemoryRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	t.ID = newTaskID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.ReminderSent = false
	t.ProgressUpdates = nil
	normalizeTask(&t)

	// Dependencies supplied at create time go through the same gate as
	// AddDependency.
	deps := t.Dependencies
	t.Dependencies = []model.TaskID{}
	for _, dep := range deps {
		if dep == t.ID {
			return model.Task{}, ErrSelfDependency
		}
		if WouldCycle(t.ID, dep, r.allLocked()) {
			return model.Task{}, ErrDependencyCycle
		}
		if !t.DependsOn(dep) {
			t.Dependencies = append(t.Dependencies, dep)
		}
	}

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id model.TaskID) (model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	applyPatch(&t, p)
	t.UpdatedAt = r.clk.Now()
	normalizeTask(&t)
	r.tasks[id] = t
	return t, nil
}

// Delete removes the task and scrubs its id from every other task's
// dependency list, so no dangling ids survive.
func (r *MemoryRepo) Delete(ctx context.Context, id model.TaskID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)

	for tid, t := range r.tasks {
		if !t.DependsOn(id) {
			continue
		}
		next := make([]model.TaskID, 0, len(t.Dependencies)-1)
		for _, dep := range t.Dependencies {
			if dep != id {
				next = append(next, dep)
			}
		}
		t.Dependencies = next
		r.tasks[tid] = t
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]model.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		normalizeTask(&t)
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, id model.TaskID, to model.Status, userID string) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if err := SetStatus(&t, to, userID, r.clk.Now()); err != nil {
		return model.Task{}, err
	}
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) Toggle(ctx context.Context, id model.TaskID, userID string) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	Toggle(&t, userID, r.clk.Now())
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) CycleReminder(ctx context.Context, id model.TaskID) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	CycleReminder(&t, r.clk.Now())
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) MarkReminderSent(ctx context.Context, id model.TaskID) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.ReminderSent {
		return false, nil
	}
	t.ReminderSent = true
	t.UpdatedAt = r.clk.Now()
	r.tasks[id] = t
	return true, nil
}

func (r *MemoryRepo) AddDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if id == dep {
		return model.Task{}, ErrSelfDependency
	}
	if WouldCycle(id, dep, r.allLocked()) {
		return model.Task{}, ErrDependencyCycle
	}
	if !t.DependsOn(dep) {
		t.Dependencies = append(t.Dependencies, dep)
		t.UpdatedAt = r.clk.Now()
	}
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) RemoveDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	next := make([]model.TaskID, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		if d != dep {
			next = append(next, d)
		}
	}
	if len(next) != len(t.Dependencies) {
		t.Dependencies = next
		t.UpdatedAt = r.clk.Now()
	}
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) allLocked() []model.Task {
	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out
}
