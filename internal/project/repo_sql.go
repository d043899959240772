package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

const projectSchema = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	due_date            TEXT NOT NULL DEFAULT '',
	milestones          TEXT NOT NULL DEFAULT '[]',
	completion_criteria TEXT NOT NULL DEFAULT '[]',
	archived            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
`

type projectRow struct {
	ID                 string       `db:"id"`
	Name               string       `db:"name"`
	Description        string       `db:"description"`
	DueDate            string       `db:"due_date"`
	Milestones         string       `db:"milestones"`
	CompletionCriteria string       `db:"completion_criteria"`
	Archived           bool         `db:"archived"`
	CreatedAt          sql.NullTime `db:"created_at"`
	UpdatedAt          sql.NullTime `db:"updated_at"`
}

func (row projectRow) toModel() model.Project {
	p := model.Project{
		ID:          model.ProjectID(row.ID),
		Name:        row.Name,
		Description: row.Description,
		DueDate:     row.DueDate,
		Archived:    row.Archived,
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		p.UpdatedAt = row.UpdatedAt.Time
	}
	_ = json.Unmarshal([]byte(row.Milestones), &p.Milestones)
	_ = json.Unmarshal([]byte(row.CompletionCriteria), &p.CompletionCriteria)
	normalizeProject(&p)
	return p
}

func projectValues(p model.Project) map[string]any {
	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		milestones = []byte("[]")
	}
	criteria, err := json.Marshal(p.CompletionCriteria)
	if err != nil {
		criteria = []byte("[]")
	}
	return map[string]any{
		"name":                p.Name,
		"description":         p.Description,
		"due_date":            p.DueDate,
		"milestones":          string(milestones),
		"completion_criteria": string(criteria),
		"archived":            p.Archived,
		"updated_at":          p.UpdatedAt,
	}
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
	_, err := r.db.ExecContext(ctx, projectSchema)
	return err
}

func (r *SQLRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = newProjectID()
	}
	normalizeProject(&p)
	now := r.clk.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	values := projectValues(p)
	values["id"] = string(p.ID)
	values["created_at"] = p.CreatedAt

	query, args, err := r.sb.Insert("projects").SetMap(values).ToSql()
	if err != nil {
		return model.Project{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r *SQLRepo) Get(ctx context.Context, id model.ProjectID) (model.Project, error) {
	query, args, err := r.sb.Select("*").From("projects").Where(squirrel.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return model.Project{}, err
	}
	var row projectRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, ErrNotFound
		}
		return model.Project{}, err
	}
	return row.toModel(), nil
}

func (r *SQLRepo) save(ctx context.Context, p model.Project) error {
	query, args, err := r.sb.Update("projects").
		SetMap(projectValues(p)).
		Where(squirrel.Eq{"id": string(p.ID)}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) Update(ctx context.Context, id model.ProjectID, patch Patch) (model.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	applyPatch(&p, patch, r.clk.Now())
	normalizeProject(&p)
	if err := r.save(ctx, p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func (r *SQLRepo) Delete(ctx context.Context, id model.ProjectID) error {
	query, args, err := r.sb.Delete("projects").Where(squirrel.Eq{"id": string(id)}).ToSql()
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

func (r *SQLRepo) List(ctx context.Context, includeArchived bool) ([]model.Project, error) {
	builder := r.sb.Select("*").From("projects").OrderBy("created_at", "id")
	if !includeArchived {
		builder = builder.Where(squirrel.Eq{"archived": false})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *SQLRepo) SetMilestoneDone(ctx context.Context, id model.ProjectID, index int, done bool) (model.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	if index < 0 || index >= len(p.Milestones) {
		return model.Project{}, ErrIndexOutOfRange
	}
	p.Milestones[index].Done = done
	p.UpdatedAt = r.clk.Now()
	if err := r.save(ctx, p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func (r *SQLRepo) SetCriterionMet(ctx context.Context, id model.ProjectID, index int, met bool) (model.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	if index < 0 || index >= len(p.CompletionCriteria) {
		return model.Project{}, ErrIndexOutOfRange
	}
	p.CompletionCriteria[index].Met = met
	p.UpdatedAt = r.clk.Now()
	if err := r.save(ctx, p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
