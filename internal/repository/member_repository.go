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

// MemberRepo provides CRUD operations for project members.  The pair
// (project_id, external_id) is unique; a second registration of the
// same identity yields ErrConflict.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, project_id, external_id, display_name, staff_role, created_at`

// Create inserts m.  Empty ID and zero CreatedAt are filled in.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.StaffRole = strings.TrimSpace(m.StaffRole)
	const q = `INSERT INTO members (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.ProjectID, m.ExternalID, m.DisplayName, m.StaffRole, m.CreatedAt)
	switch {
	case isDuplicate(err):
		return ErrConflict
	case isForeignKey(err):
		return notFound("project", m.ProjectID)
	}
	return err
}

// GetByID returns the member or ErrNotFound.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	return scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id), id)
}

// GetByExternalID resolves a login identity inside a project.
func (r *MemberRepo) GetByExternalID(ctx context.Context, projectID, externalID string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE project_id = ? AND external_id = ?`, projectID, externalID)
	return scanMember(row, externalID)
}

func scanMember(row *sql.Row, id string) (*model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.ProjectID, &m.ExternalID, &m.DisplayName, &m.StaffRole, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("member", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByProject returns a project's members ordered by display name.
func (r *MemberRepo) ListByProject(ctx context.Context, projectID string) ([]model.Member, error) {
	return listMembers(ctx, r.db, projectID)
}

func listMembers(ctx context.Context, q queryer, projectID string) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+memberColumns+` FROM members WHERE project_id = ? ORDER BY display_name, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ExternalID, &m.DisplayName, &m.StaffRole, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
