package project

import (
	"context"
	"errors"
	"time"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

var (
	ErrNotFound        = errors.New("project not found")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Patch carries partial project updates. Nil fields are untouched.
type Patch struct {
	Name               *string
	Description        *string
	DueDate            *string
	Milestones         *[]model.Milestone
	CompletionCriteria *[]model.CompletionCriterion
	Archived           *bool
}

type Repo interface {
	Create(ctx context.Context, p model.Project) (model.Project, error)
	Get(ctx context.Context, id model.ProjectID) (model.Project, error)
	Update(ctx context.Context, id model.ProjectID, patch Patch) (model.Project, error)
	Delete(ctx context.Context, id model.ProjectID) error
	List(ctx context.Context, includeArchived bool) ([]model.Project, error)
	SetMilestoneDone(ctx context.Context, id model.ProjectID, index int, done bool) (model.Project, error)
	SetCriterionMet(ctx context.Context, id model.ProjectID, index int, met bool) (model.Project, error)
}

func applyPatch(p *model.Project, patch Patch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.DueDate != nil {
		p.DueDate = *patch.DueDate
	}
	if patch.Milestones != nil {
		p.Milestones = *patch.Milestones
	}
	if patch.CompletionCriteria != nil {
		p.CompletionCriteria = *patch.CompletionCriteria
	}
	if patch.Archived != nil {
		p.Archived = *patch.Archived
	}
	p.UpdatedAt = now
}

func normalizeProject(p *model.Project) {
	if p.Milestones == nil {
		p.Milestones = []model.Milestone{}
	}
	if p.CompletionCriteria == nil {
		p.CompletionCriteria = []model.CompletionCriterion{}
	}
}
