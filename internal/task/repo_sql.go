package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

const taskSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'todo',
	priority         TEXT NOT NULL DEFAULT 'medium',
	category         TEXT NOT NULL DEFAULT '',
	due_date         TEXT NOT NULL DEFAULT '',
	due_time         TEXT NOT NULL DEFAULT '',
	reminder_minutes INTEGER NOT NULL DEFAULT 0,
	reminder_sent    BOOLEAN NOT NULL DEFAULT FALSE,
	project_id       TEXT NOT NULL DEFAULT '',
	progress_updates TEXT NOT NULL DEFAULT '[]',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS task_dependencies (
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	depends_on TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, depends_on)
);
`

// taskRow is the snake_case persistence shape; the mapping to the canonical
// model (including legacy status spellings) happens here and only here.
type taskRow struct {
	ID              string       `db:"id"`
	Title           string       `db:"title"`
	Description     string       `db:"description"`
	Status          string       `db:"status"`
	Priority        string       `db:"priority"`
	Category        string       `db:"category"`
	DueDate         string       `db:"due_date"`
	DueTime         string       `db:"due_time"`
	ReminderMinutes int          `db:"reminder_minutes"`
	ReminderSent    bool         `db:"reminder_sent"`
	ProjectID       string       `db:"project_id"`
	ProgressUpdates string       `db:"progress_updates"`
	CreatedAt       sql.NullTime `db:"created_at"`
	UpdatedAt       sql.NullTime `db:"updated_at"`
}

func (row taskRow) toModel(deps []model.TaskID) model.Task {
	status, ok := model.ParseStatus(row.Status)
	if !ok {
		status = model.StatusTodo
	}
	priority, ok := model.ParsePriority(row.Priority)
	if !ok {
		priority = model.PriorityMedium
	}
	t := model.Task{
		ID:              model.TaskID(row.ID),
		Title:           row.Title,
		Description:     row.Description,
		Status:          status,
		Priority:        priority,
		Category:        row.Category,
		DueDate:         row.DueDate,
		DueTime:         row.DueTime,
		Dependencies:    deps,
		ReminderMinutes: row.ReminderMinutes,
		ReminderSent:    row.ReminderSent,
		ProjectID:       row.ProjectID,
	}
	if row.CreatedAt.Valid {
		t.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		t.UpdatedAt = row.UpdatedAt.Time
	}
	// Swallow audit decode errors; a corrupt audit list degrades to empty.
	_ = json.Unmarshal([]byte(row.ProgressUpdates), &t.ProgressUpdates)
	normalizeTask(&t)
	return t
}

func rowValues(t model.Task) map[string]any {
	audit, err := json.Marshal(t.ProgressUpdates)
	if err != nil {
		audit = []byte("[]")
	}
	return map[string]any{
		"title":            t.Title,
		"description":      t.Description,
		"status":           string(t.Status),
		"priority":         string(t.Priority),
		"category":         t.Category,
		"due_date":         t.DueDate,
		"due_time":         t.DueTime,
		"reminder_minutes": t.ReminderMinutes,
		"reminder_sent":    t.ReminderSent,
		"project_id":       t.ProjectID,
		"progress_updates": string(audit),
		"updated_at":       t.UpdatedAt,
	}
}

// SQLRepo is the PostgreSQL-backed task store.
type SQLRepo struct {
	db  *sqlx.DB
	clk clock.Clock
	sb  squirrel.StatementBuilderType
}

func NewSQLRepo(db *sqlx.DB, clk clock.Clock) *SQLRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &SQLRepo{
		db:  db,
		clk: clk,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EnsureSchema creates the task tables when they do not exist yet.
func (r *SQLRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, taskSchema)
	return err
}

func (r *SQLRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	now := r.clk.Now()
	t.ID = newTaskID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.ReminderSent = false
	t.ProgressUpdates = nil
	normalizeTask(&t)

	deps := t.Dependencies
	t.Dependencies = []model.TaskID{}
	for _, dep := range deps {
		if dep == t.ID {
			return model.Task{}, ErrSelfDependency
		}
		if !t.DependsOn(dep) {
			t.Dependencies = append(t.Dependencies, dep)
		}
	}
	all, err := r.List(ctx, ListFilter{})
	if err != nil {
		return model.Task{}, err
	}
	for _, dep := range t.Dependencies {
		if WouldCycle(t.ID, dep, all) {
			return model.Task{}, ErrDependencyCycle
		}
	}

	values := rowValues(t)
	values["id"] = string(t.ID)
	values["created_at"] = t.CreatedAt

	query, args, err := r.sb.Insert("tasks").SetMap(values).ToSql()
	if err != nil {
		return model.Task{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	for _, dep := range t.Dependencies {
		if err := r.insertDep(ctx, tx, t.ID, dep); err != nil {
			return model.Task{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLRepo) insertDep(ctx context.Context, tx *sqlx.Tx, id, dep model.TaskID) error {
	query, args, err := r.sb.Insert("task_dependencies").
		Columns("task_id", "depends_on").
		Values(string(id), string(dep)).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

func (r *SQLRepo) Get(ctx context.Context, id model.TaskID) (model.Task, error) {
	query, args, err := r.sb.Select("*").From("tasks").Where(squirrel.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return model.Task{}, err
	}
	var row taskRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	deps, err := r.depsFor(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return row.toModel(deps), nil
}

func (r *SQLRepo) depsFor(ctx context.Context, id model.TaskID) ([]model.TaskID, error) {
	query, args, err := r.sb.Select("depends_on").
		From("task_dependencies").
		Where(squirrel.Eq{"task_id": string(id)}).
		OrderBy("depends_on").
		ToSql()
	if err != nil {
		return nil, err
	}
	var raw []string
	if err := r.db.SelectContext(ctx, &raw, query, args...); err != nil {
		return nil, err
	}
	deps := make([]model.TaskID, 0, len(raw))
	for _, d := range raw {
		deps = append(deps, model.TaskID(d))
	}
	return deps, nil
}

func (r *SQLRepo) save(ctx context.Context, t model.Task) error {
	query, args, err := r.sb.Update("tasks").
		SetMap(rowValues(t)).
		Where(squirrel.Eq{"id": string(t.ID)}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	applyPatch(&t, p)
	t.UpdatedAt = r.clk.Now()
	normalizeTask(&t)
	if err := r.save(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLRepo) Delete(ctx context.Context, id model.TaskID) error {
	// ON DELETE CASCADE on task_dependencies covers the scrub of both the
	// task's own edges and any other task's reference to it.
	query, args, err := r.sb.Delete("tasks").Where(squirrel.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) List(ctx context.Context, f ListFilter) ([]model.Task, error) {
	builder := r.sb.Select("*").From("tasks").OrderBy("created_at", "id")
	if f.ProjectID != "" {
		builder = builder.Where(squirrel.Eq{"project_id": f.ProjectID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	depsByTask, err := r.allDeps(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel(depsByTask[model.TaskID(row.ID)]))
	}
	return out, nil
}

func (r *SQLRepo) allDeps(ctx context.Context) (map[model.TaskID][]model.TaskID, error) {
	query, args, err := r.sb.Select("task_id", "depends_on").
		From("task_dependencies").
		OrderBy("task_id", "depends_on").
		ToSql()
	if err != nil {
		return nil, err
	}
	var edges []struct {
		TaskID    string `db:"task_id"`
		DependsOn string `db:"depends_on"`
	}
	if err := r.db.SelectContext(ctx, &edges, query, args...); err != nil {
		return nil, err
	}
	out := map[model.TaskID][]model.TaskID{}
	for _, e := range edges {
		id := model.TaskID(e.TaskID)
		out[id] = append(out[id], model.TaskID(e.DependsOn))
	}
	return out, nil
}

func (r *SQLRepo) SetStatus(ctx context.Context, id model.TaskID, to model.Status, userID string) (model.Task, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if err := SetStatus(&t, to, userID, r.clk.Now()); err != nil {
		return model.Task{}, err
	}
	if err := r.save(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLRepo) Toggle(ctx context.Context, id model.TaskID, userID string) (model.Task, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	Toggle(&t, userID, r.clk.Now())
	if err := r.save(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLRepo) CycleReminder(ctx context.Context, id model.TaskID) (model.Task, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	CycleReminder(&t, r.clk.Now())
	if err := r.save(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// MarkReminderSent flips the flag with a guarded UPDATE so only one caller
// wins even under concurrent pollers.
func (r *SQLRepo) MarkReminderSent(ctx context.Context, id model.TaskID) (bool, error) {
	query, args, err := r.sb.Update("tasks").
		Set("reminder_sent", true).
		Set("updated_at", r.clk.Now()).
		Where(squirrel.Eq{"id": string(id), "reminder_sent": false}).
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Either already sent or missing; disambiguate for the caller.
		if _, err := r.Get(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *SQLRepo) AddDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error) {
	if id == dep {
		return model.Task{}, ErrSelfDependency
	}
	all, err := r.List(ctx, ListFilter{})
	if err != nil {
		return model.Task{}, err
	}
	found := false
	for _, t := range all {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return model.Task{}, ErrNotFound
	}
	if WouldCycle(id, dep, all) {
		return model.Task{}, ErrDependencyCycle
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer tx.Rollback()
	if err := r.insertDep(ctx, tx, id, dep); err != nil {
		return model.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	return r.Get(ctx, id)
}

func (r *SQLRepo) RemoveDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error) {
	query, args, err := r.sb.Delete("task_dependencies").
		Where(squirrel.Eq{"task_id": string(id), "depends_on": string(dep)}).
		ToSql()
	if err != nil {
		return model.Task{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return model.Task{}, err
	}
	return r.Get(ctx, id)
}
