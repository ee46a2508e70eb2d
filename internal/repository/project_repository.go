package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// ProjectRepo provides CRUD operations for projects.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo returns a new ProjectRepo bound to the given database.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Create inserts p.  Empty ID and zero CreatedAt are filled in.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO projects (id, name, required_roles_hint, notify_targets, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.ID, strings.TrimSpace(p.Name), p.RequiredRolesHint, p.NotifyTargets, p.CreatedAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// GetByID returns the project or ErrNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	return getProject(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getProject(ctx context.Context, q queryer, id string) (*model.Project, error) {
	const sel = `SELECT id, name, required_roles_hint, notify_targets, created_at FROM projects WHERE id = ?`
	var p model.Project
	err := q.QueryRowContext(ctx, sel, id).Scan(&p.ID, &p.Name, &p.RequiredRolesHint, &p.NotifyTargets, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every project ordered by name.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, required_roles_hint, notify_targets, created_at FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.RequiredRolesHint, &p.NotifyTargets, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
