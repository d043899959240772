package timeentry

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	entries map[model.TimeEntryID]model.TimeEntry
	clk     clock.Clock
}

func NewMemoryRepo(clk clock.Clock) *MemoryRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryRepo{
		entries: make(map[model.TimeEntryID]model.TimeEntry),
		clk:     clk,
	}
}

func newEntryID() model.TimeEntryID {
	return model.TimeEntryID("entry_" + uuid.NewString())
}

func (r *MemoryRepo) Start(ctx context.Context, taskID model.TaskID, userID, note string) (model.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.TaskID == taskID && e.UserID == userID && e.EndedAt == nil {
			return model.TimeEntry{}, ErrAlreadyRunning
		}
	}
	e := model.TimeEntry{
		ID:        newEntryID(),
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: r.clk.Now(),
		Note:      note,
	}
	r.entries[e.ID] = e
	return e, nil
}

func (r *MemoryRepo) Stop(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.TimeEntry{}, ErrNotFound
	}
	if e.EndedAt != nil {
		return model.TimeEntry{}, ErrNotRunning
	}
	now := r.clk.Now()
	e.EndedAt = &now
	r.entries[id] = e
	return e, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return model.TimeEntry{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]model.TimeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.TimeEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if f.TaskID != "" && string(e.TaskID) != f.TaskID {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id model.TimeEntryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}
