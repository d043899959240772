package project

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	projects map[model.ProjectID]model.Project
	clk      clock.Clock
}

func NewMemoryRepo(clk clock.Clock) *MemoryRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryRepo{
		projects: make(map[model.ProjectID]model.Project),
		clk:      clk,
	}
}

func newProjectID() model.ProjectID {
	return model.ProjectID("proj_" + uuid.NewString())
}

func (r *MemoryRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = newProjectID()
	}
	normalizeProject(&p)
	now := r.clk.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.projects[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id model.ProjectID) (model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id model.ProjectID, patch Patch) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	applyPatch(&p, patch, r.clk.Now())
	normalizeProject(&p)
	r.projects[id] = p
	return p, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, includeArchived bool) ([]model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		if p.Archived && !includeArchived {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) SetMilestoneDone(ctx context.Context, id model.ProjectID, index int, done bool) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	if index < 0 || index >= len(p.Milestones) {
		return model.Project{}, ErrIndexOutOfRange
	}
	p.Milestones[index].Done = done
	p.UpdatedAt = r.clk.Now()
	r.projects[id] = p
	return p, nil
}

func (r *MemoryRepo) SetCriterionMet(ctx context.Context, id model.ProjectID, index int, met bool) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	if index < 0 || index >= len(p.CompletionCriteria) {
		return model.Project{}, ErrIndexOutOfRange
	}
	p.CompletionCriteria[index].Met = met
	p.UpdatedAt = r.clk.Now()
	r.projects[id] = p
	return p, nil
}
