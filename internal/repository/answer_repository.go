package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// AnswerRepo stores members' availability answers.
type AnswerRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewAnswerRepo returns a new AnswerRepo bound to the given database.
func NewAnswerRepo(db *sql.DB, d database.Dialect) *AnswerRepo {
	return &AnswerRepo{db: db, dialect: d}
}

// Upsert inserts the answer or overwrites the stored one.  A write
// whose UpdatedAt is older than the stored row's is ignored, so
// racing writers resolve to the latest instant.  The member must
// belong to the project owning the candidate's poll; otherwise
// ErrNotFound is returned.
func (r *AnswerRepo) Upsert(ctx context.Context, a model.Answer) error {
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := answerTarget(ctx, tx, a.CandidateID, a.MemberID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.dialect.UpsertAnswerSQL, a.CandidateID, a.MemberID, string(a.Status), a.UpdatedAt.UTC()); err != nil {
		if isForeignKey(err) {
			return notFound("candidate or member", a.CandidateID+"/"+a.MemberID)
		}
		return err
	}
	return tx.Commit()
}

func answerTarget(ctx context.Context, tx *sql.Tx, candidateID, memberID string) error {
	const q = `SELECT
  EXISTS (SELECT 1 FROM schedule_candidates WHERE id = ?),
  EXISTS (SELECT 1 FROM schedule_candidates c
          JOIN schedule_polls p ON p.id = c.poll_id
          JOIN members m ON m.project_id = p.project_id
          WHERE c.id = ? AND m.id = ?)`
	var candidate, member bool
	if err := tx.QueryRowContext(ctx, q, candidateID, candidateID, memberID).Scan(&candidate, &member); err != nil {
		return err
	}
	if !candidate {
		return notFound("candidate", candidateID)
	}
	if !member {
		return notFound("member", memberID)
	}
	return nil
}

// Get returns one answer or ErrNotFound.
func (r *AnswerRepo) Get(ctx context.Context, candidateID, memberID string) (*model.Answer, error) {
	var a model.Answer
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT candidate_id, member_id, status, updated_at FROM schedule_answers WHERE candidate_id = ? AND member_id = ?`,
		candidateID, memberID).Scan(&a.CandidateID, &a.MemberID, &status, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("answer", candidateID+"/"+memberID)
	}
	if err != nil {
		return nil, err
	}
	a.Status = model.AnswerStatus(status)
	return &a, nil
}

// ListByPoll returns every answer to the poll's candidates.
func (r *AnswerRepo) ListByPoll(ctx context.Context, pollID string) ([]model.Answer, error) {
	return listAnswers(ctx, r.db, pollID)
}

func listAnswers(ctx context.Context, q queryer, pollID string) ([]model.Answer, error) {
	rows, err := q.QueryContext(ctx, `SELECT a.candidate_id, a.member_id, a.status, a.updated_at FROM schedule_answers a
JOIN schedule_candidates c ON c.id = a.candidate_id
WHERE c.poll_id = ? ORDER BY a.candidate_id, a.member_id`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		var status string
		if err := rows.Scan(&a.CandidateID, &a.MemberID, &status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Status = model.AnswerStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}
