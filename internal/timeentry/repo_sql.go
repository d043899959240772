package timeentry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

const entrySchema = `
CREATE TABLE IF NOT EXISTS time_entries (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ,
	note       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_time_entries_task ON time_entries (task_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_user ON time_entries (user_id);
`

type entryRow struct {
	ID        string       `db:"id"`
	TaskID    string       `db:"task_id"`
	UserID    string       `db:"user_id"`
	StartedAt sql.NullTime `db:"started_at"`
	EndedAt   sql.NullTime `db:"ended_at"`
	Note      string       `db:"note"`
}

func (row entryRow) toModel() model.TimeEntry {
	e := model.TimeEntry{
		ID:     model.TimeEntryID(row.ID),
		TaskID: model.TaskID(row.TaskID),
		UserID: row.UserID,
		Note:   row.Note,
	}
	if row.StartedAt.Valid {
		e.StartedAt = row.StartedAt.Time
	}
	if row.EndedAt.Valid {
		t := row.EndedAt.Time
		e.EndedAt = &t
	}
	return e
}

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

func (r *SQLRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, entrySchema)
	return err
}

func (r *SQLRepo) Start(ctx context.Context, taskID model.TaskID, userID, note string) (model.TimeEntry, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("time_entries").
		Where(squirrel.Eq{"task_id": string(taskID), "user_id": userID}).
		Where("ended_at IS NULL").
		ToSql()
	if err != nil {
		return model.TimeEntry{}, err
	}
	var running int
	if err := r.db.GetContext(ctx, &running, query, args...); err != nil {
		return model.TimeEntry{}, err
	}
	if running > 0 {
		return model.TimeEntry{}, ErrAlreadyRunning
	}

	e := model.TimeEntry{
		ID:        newEntryID(),
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: r.clk.Now(),
		Note:      note,
	}
	query, args, err = r.sb.Insert("time_entries").SetMap(map[string]any{
		"id":         string(e.ID),
		"task_id":    string(e.TaskID),
		"user_id":    e.UserID,
		"started_at": e.StartedAt,
		"note":       e.Note,
	}).ToSql()
	if err != nil {
		return model.TimeEntry{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return model.TimeEntry{}, fmt.Errorf("insert time entry: %w", err)
	}
	return e, nil
}

// Stop closes the entry with a guarded UPDATE so a double stop fails cleanly.
func (r *SQLRepo) Stop(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error) {
	query, args, err := r.sb.Update("time_entries").
		Set("ended_at", r.clk.Now()).
		Where(squirrel.Eq{"id": string(id)}).
		Where("ended_at IS NULL").
		ToSql()
	if err != nil {
		return model.TimeEntry{}, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return model.TimeEntry{}, err
		}
		return model.TimeEntry{}, ErrNotRunning
	}
	return r.Get(ctx, id)
}

func (r *SQLRepo) Get(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error) {
	query, args, err := r.sb.Select("*").From("time_entries").Where(squirrel.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return model.TimeEntry{}, err
	}
	var row entryRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TimeEntry{}, ErrNotFound
		}
		return model.TimeEntry{}, err
	}
	return row.toModel(), nil
}

func (r *SQLRepo) List(ctx context.Context, f ListFilter) ([]model.TimeEntry, error) {
	builder := r.sb.Select("*").From("time_entries").OrderBy("started_at", "id")
	if f.TaskID != "" {
		builder = builder.Where(squirrel.Eq{"task_id": f.TaskID})
	}
	if f.UserID != "" {
		builder = builder.Where(squirrel.Eq{"user_id": f.UserID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.TimeEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *SQLRepo) Delete(ctx context.Context, id model.TimeEntryID) error {
	query, args, err := r.sb.Delete("time_entries").Where(squirrel.Eq{"id": string(id)}).ToSql()
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
