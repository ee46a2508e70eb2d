package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// SnapshotRepo implements scheduling.Store on top of the other
// repositories' tables.
type SnapshotRepo struct {
	db      *sql.DB
	dialect database.Dialect
	answers *AnswerRepo
}

// NewSnapshotRepo returns a new SnapshotRepo bound to the given database.
func NewSnapshotRepo(db *sql.DB, d database.Dialect) *SnapshotRepo {
	return &SnapshotRepo{db: db, dialect: d, answers: NewAnswerRepo(db, d)}
}

// LoadPollSnapshot reads the poll, its project, members, candidates
// and answers, and the project's current script with its scene
// matrix in one transaction.  The connection is released before
// returning, also when ctx is cancelled mid-read.
func (r *SnapshotRepo) LoadPollSnapshot(ctx context.Context, pollID string) (*model.PollSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, r.dialect.SnapshotTxOptions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	poll, err := getPoll(ctx, tx, pollID)
	if err != nil {
		return nil, err
	}
	project, err := getProject(ctx, tx, poll.ProjectID)
	if err != nil {
		return nil, err
	}
	snap := &model.PollSnapshot{Poll: *poll, Project: *project}

	if snap.Members, err = listMembers(ctx, tx, project.ID); err != nil {
		return nil, err
	}
	if snap.Candidates, err = listCandidates(ctx, tx, poll.ID); err != nil {
		return nil, err
	}
	if snap.Answers, err = listAnswers(ctx, tx, poll.ID); err != nil {
		return nil, err
	}

	script, err := currentScript(ctx, tx, project.ID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		snap.Script = script
		if err := scriptMatrix(ctx, tx, script.ID, snap); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return snap, nil
}

// UpsertAnswer delegates to AnswerRepo.Upsert.
func (r *SnapshotRepo) UpsertAnswer(ctx context.Context, a model.Answer) error {
	return r.answers.Upsert(ctx, a)
}
