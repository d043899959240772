package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
	"github.com/studiorevonza/Task.One-sub000/internal/project"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

type seedTask struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Status          string   `yaml:"status"`
	Priority        string   `yaml:"priority"`
	Category        string   `yaml:"category"`
	DueDate         string   `yaml:"due_date"`
	DueTime         string   `yaml:"due_time"`
	ReminderMinutes int      `yaml:"reminder_minutes"`
	DependsOn       []string `yaml:"depends_on"`
}

type seedMilestone struct {
	Title   string `yaml:"title"`
	DueDate string `yaml:"due_date"`
}

type seedProject struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	DueDate     string          `yaml:"due_date"`
	Milestones  []seedMilestone `yaml:"milestones"`
	Criteria    []string        `yaml:"criteria"`
	Tasks       []seedTask      `yaml:"tasks"`
}

type file struct {
	Projects []seedProject `yaml:"projects"`
	Tasks    []seedTask    `yaml:"tasks"`
}

// Apply loads demo fixtures from a YAML file into empty repositories.
// It is a no-op when tasks already exist, so restarts do not duplicate
// the fixtures. Dependencies reference earlier tasks in the same file
// by title.
func Apply(ctx context.Context, path string, tasks task.Repo, projects project.Repo, log zerolog.Logger) error {
	existing, err := tasks.List(ctx, task.ListFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Debug().Msg("seed skipped, store is not empty")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	idByTitle := map[string]model.TaskID{}

	createTask := func(st seedTask, projectID string) error {
		t := model.Task{
			Title:           st.Title,
			Description:     st.Description,
			Category:        st.Category,
			DueDate:         st.DueDate,
			DueTime:         st.DueTime,
			ReminderMinutes: st.ReminderMinutes,
			ProjectID:       projectID,
		}
		if s, ok := model.ParseStatus(st.Status); ok {
			t.Status = s
		}
		if p, ok := model.ParsePriority(st.Priority); ok {
			t.Priority = p
		}
		for _, depTitle := range st.DependsOn {
			dep, ok := idByTitle[depTitle]
			if !ok {
				return fmt.Errorf("seed task %q depends on unknown task %q", st.Title, depTitle)
			}
			t.Dependencies = append(t.Dependencies, dep)
		}
		created, err := tasks.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("seed task %q: %w", st.Title, err)
		}
		idByTitle[st.Title] = created.ID
		return nil
	}

	for _, sp := range f.Projects {
		p := model.Project{
			Name:        sp.Name,
			Description: sp.Description,
			DueDate:     sp.DueDate,
		}
		for _, m := range sp.Milestones {
			p.Milestones = append(p.Milestones, model.Milestone{Title: m.Title, DueDate: m.DueDate})
		}
		for _, c := range sp.Criteria {
			p.CompletionCriteria = append(p.CompletionCriteria, model.CompletionCriterion{Text: c})
		}
		created, err := projects.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("seed project %q: %w", sp.Name, err)
		}
		for _, st := range sp.Tasks {
			if err := createTask(st, string(created.ID)); err != nil {
				return err
			}
		}
	}
	for _, st := range f.Tasks {
		if err := createTask(st, ""); err != nil {
			return err
		}
	}

	log.Info().Int("tasks", len(idByTitle)).Int("projects", len(f.Projects)).Msg("seed applied")
	return nil
}
