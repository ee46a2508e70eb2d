package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// PollRepo provides CRUD operations for schedule polls and their
// candidate slots.  Deleting a candidate cascades to its answers.
type PollRepo struct {
	db *sql.DB
}

// NewPollRepo returns a new PollRepo bound to the given database.
func NewPollRepo(db *sql.DB) *PollRepo { return &PollRepo{db: db} }

const pollColumns = `id, project_id, title, creator_id, is_closed, required_roles, finalized_candidate_id, created_at`

// Create inserts p.  Empty ID and zero CreatedAt are filled in.
func (r *PollRepo) Create(ctx context.Context, p *model.SchedulePoll) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO schedule_polls (` + pollColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.ProjectID, p.Title, p.CreatorID, p.IsClosed, p.RequiredRoles, p.FinalizedCandidateID, p.CreatedAt)
	if isForeignKey(err) {
		return notFound("project", p.ProjectID)
	}
	return err
}

// GetByID returns the poll or ErrNotFound.
func (r *PollRepo) GetByID(ctx context.Context, id string) (*model.SchedulePoll, error) {
	return getPoll(ctx, r.db, id)
}

func getPoll(ctx context.Context, q queryer, id string) (*model.SchedulePoll, error) {
	p, err := scanPoll(q.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM schedule_polls WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("poll", id)
	}
	return p, err
}

// PollProject returns the project a poll belongs to.
func (r *PollRepo) PollProject(ctx context.Context, pollID string) (string, error) {
	var projectID string
	err := r.db.QueryRowContext(ctx, `SELECT project_id FROM schedule_polls WHERE id = ?`, pollID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("poll", pollID)
	}
	return projectID, err
}

// CandidateProject returns the project owning the candidate's poll.
func (r *PollRepo) CandidateProject(ctx context.Context, candidateID string) (string, error) {
	var projectID string
	err := r.db.QueryRowContext(ctx, `SELECT p.project_id FROM schedule_candidates c JOIN schedule_polls p ON p.id = c.poll_id WHERE c.id = ?`, candidateID).
		Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("candidate", candidateID)
	}
	return projectID, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*model.SchedulePoll, error) {
	var p model.SchedulePoll
	var finalized sql.NullString
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Title, &p.CreatorID, &p.IsClosed, &p.RequiredRoles, &finalized, &p.CreatedAt); err != nil {
		return nil, err
	}
	if finalized.Valid {
		id := finalized.String
		p.FinalizedCandidateID = &id
	}
	return &p, nil
}

// ListOpenByProject returns the project's polls that are not closed,
// oldest first.
func (r *PollRepo) ListOpenByProject(ctx context.Context, projectID string) ([]model.SchedulePoll, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM schedule_polls WHERE project_id = ? AND is_closed = ? ORDER BY created_at, id`, projectID, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SchedulePoll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Close marks the poll closed with candidateID as the finalized slot.
// The candidate must belong to the poll.
func (r *PollRepo) Close(ctx context.Context, pollID, candidateID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getPoll(ctx, tx, pollID); err != nil {
		return err
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM schedule_candidates WHERE id = ? AND poll_id = ?`, candidateID, pollID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("candidate", candidateID)
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE schedule_polls SET is_closed = ?, finalized_candidate_id = ? WHERE id = ?`, true, candidateID, pollID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddCandidate inserts a slot into a poll.  StartsAt must be before
// EndsAt; both are stored in UTC.
func (r *PollRepo) AddCandidate(ctx context.Context, c *model.Candidate) error {
	if !c.StartsAt.Before(c.EndsAt) {
		return ErrInvalidWindow
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.StartsAt, c.EndsAt = c.StartsAt.UTC(), c.EndsAt.UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO schedule_candidates (id, poll_id, starts_at, ends_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.PollID, c.StartsAt, c.EndsAt)
	if isForeignKey(err) {
		return notFound("poll", c.PollID)
	}
	return err
}

// GetCandidate returns one candidate or ErrNotFound.
func (r *PollRepo) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	var c model.Candidate
	err := r.db.QueryRowContext(ctx, `SELECT id, poll_id, starts_at, ends_at FROM schedule_candidates WHERE id = ?`, id).
		Scan(&c.ID, &c.PollID, &c.StartsAt, &c.EndsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("candidate", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCandidate removes a candidate and, by cascade, its answers.
func (r *PollRepo) DeleteCandidate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_candidates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("candidate", id)
	}
	return nil
}

// ListCandidates returns a poll's candidates ordered by start.
func (r *PollRepo) ListCandidates(ctx context.Context, pollID string) ([]model.Candidate, error) {
	return listCandidates(ctx, r.db, pollID)
}

func listCandidates(ctx context.Context, q queryer, pollID string) ([]model.Candidate, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, poll_id, starts_at, ends_at FROM schedule_candidates WHERE poll_id = ? ORDER BY starts_at, id`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.PollID, &c.StartsAt, &c.EndsAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
