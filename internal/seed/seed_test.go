package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
	"github.com/studiorevonza/Task.One-sub000/internal/project"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

const fixture = `
projects:
  - name: Demo project
    description: A small demo
    milestones:
      - title: Kickoff
        due_date: "2026-04-01"
    criteria:
      - All tasks done
    tasks:
      - title: Plan sprint
        status: done
        priority: high
      - title: Build feature
        status: in_progress
        depends_on: [Plan sprint]
tasks:
  - title: Water the plants
    category: home
    due_date: "2026-04-02"
    due_time: "09:00"
    reminder_minutes: 15
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	tasks := task.NewMemoryRepo(nil)
	projects := project.NewMemoryRepo(nil)

	require.NoError(t, Apply(ctx, writeFixture(t, fixture), tasks, projects, zerolog.Nop()))

	ps, err := projects.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Demo project", ps[0].Name)
	assert.Len(t, ps[0].Milestones, 1)

	all, err := tasks.List(ctx, task.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	inProject, err := tasks.List(ctx, task.ListFilter{ProjectID: string(ps[0].ID)})
	require.NoError(t, err)
	require.Len(t, inProject, 2)

	var build model.Task
	for _, tk := range all {
		if tk.Title == "Build feature" {
			build = tk
		}
	}
	require.Len(t, build.Dependencies, 1)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tasks := task.NewMemoryRepo(nil)
	projects := project.NewMemoryRepo(nil)
	path := writeFixture(t, fixture)

	require.NoError(t, Apply(ctx, path, tasks, projects, zerolog.Nop()))
	require.NoError(t, Apply(ctx, path, tasks, projects, zerolog.Nop()))

	all, err := tasks.List(ctx, task.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApplyUnknownDependencyFails(t *testing.T) {
	ctx := context.Background()
	path := writeFixture(t, `
tasks:
  - title: Orphan
    depends_on: [No such task]
`)
	err := Apply(ctx, path, task.NewMemoryRepo(nil), project.NewMemoryRepo(nil), zerolog.Nop())
	assert.Error(t, err)
}
