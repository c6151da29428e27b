package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aelfread/wordhoard/core/errors"
)

// Project owns an ordered list of sentences.
type Project struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateProject inserts a new project. Names are unique.
func (t *Tx) CreateProject(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		return nil, errors.NewValidation("name", "must not be empty")
	}
	var exists int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(err, "check project name")
	}
	if exists > 0 {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "project %q", name)
	}

	ts := now()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO projects (name, created_at, updated_at) VALUES (?, ?, ?)`,
		name, ts, ts)
	if err != nil {
		return nil, errors.Wrap(err, "insert project")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "project id")
	}
	return &Project{ID: id, Name: name, CreatedAt: ts, UpdatedAt: ts}, nil
}

// GetProject fetches a project by id.
func (t *Tx) GetProject(ctx context.Context, id int64) (*Project, error) {
	p := &Project{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "get project")
	}
	return p, nil
}

// GetProjectByName fetches a project by its unique name.
func (t *Tx) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	p := &Project{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects WHERE name = ?`, name).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get project by name")
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first.
func (t *Tx) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan project")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project and, via cascade, all its sentences,
// tokens, annotations, and notes.
func (t *Tx) DeleteProject(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	if n == 0 {
		return errors.NewNotFound("project", strconv.FormatInt(id, 10))
	}
	return nil
}

// TouchProject bumps a project's updated_at.
func (t *Tx) TouchProject(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE projects SET updated_at = ? WHERE id = ?`, now(), id)
	return errors.Wrap(err, "touch project")
}
