package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// DefaultPriorityRoles is the fallback priority set used when a poll
// has no required roles.
var DefaultPriorityRoles = []string{"director", "production"}

// Store is the engine's only view of persistence.
//
// LoadPollSnapshot must read everything in one consistent view and
// return an error matching ErrNotFound when the poll does not exist.
// UpsertAnswer must return an error matching ErrNotFound when the
// candidate or member does not exist, and must keep the row with the
// later UpdatedAt when writes race.
type Store interface {
	LoadPollSnapshot(ctx context.Context, pollID string) (*model.PollSnapshot, error)
	UpsertAnswer(ctx context.Context, a model.Answer) error
}

// Options are the engine-boundary constants.
type Options struct {
	PriorityRoles       []string
	TopK                int
	PreviewLimit        int
	MaxRequiredRolesLen int
	Location            *time.Location
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PriorityRoles == nil {
		o.PriorityRoles = DefaultPriorityRoles
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.PreviewLimit <= 0 {
		o.PreviewLimit = 5
	}
	if o.MaxRequiredRolesLen <= 0 {
		o.MaxRequiredRolesLen = DefaultMaxRequiredRolesLen
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine is the feasibility engine facade.  It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	store Store
	opts  Options
}

// NewEngine panics on a nil store, like the handler constructors.
func NewEngine(store Store, opts Options) *Engine {
	if store == nil {
		panic("nil Store passed to NewEngine")
	}
	return &Engine{store: store, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) load(ctx context.Context, pollID string) (*model.PollSnapshot, error) {
	if pollID == "" {
		return nil, fmt.Errorf("%w: poll id is required", ErrNotFound)
	}
	snap, err := e.store.LoadPollSnapshot(ctx, pollID)
	if err != nil {
		return nil, classify(err)
	}
	if err := ValidateRequiredRoles(snap.Poll.RequiredRoles, e.opts.MaxRequiredRolesLen); err != nil {
		return nil, err
	}
	return snap, nil
}

// Analyze returns the per-candidate report of a poll.
func (e *Engine) Analyze(ctx context.Context, pollID string) (*CalendarAnalysis, error) {
	snap, err := e.load(ctx, pollID)
	if err != nil {
		return nil, err
	}
	out, err := NewAnalyzer(snap, e.opts.Location).Analyze(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Recommend returns at most TopK ranked candidates of a poll.
func (e *Engine) Recommend(ctx context.Context, pollID string) ([]Recommendation, error) {
	snap, err := e.load(ctx, pollID)
	if err != nil {
		return nil, err
	}
	an := NewAnalyzer(snap, e.opts.Location)
	analysis, err := an.Analyze(ctx)
	if err != nil {
		return nil, classify(err)
	}
	r := Ranker{TopK: e.opts.TopK, PreviewLimit: e.opts.PreviewLimit, PriorityRoles: e.opts.PriorityRoles}
	recs, err := r.Rank(ctx, an, analysis)
	if err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// UpsertAnswer records a member's status at a candidate.  Repeating
// the same call is a no-op apart from the refreshed timestamp.
func (e *Engine) UpsertAnswer(ctx context.Context, candidateID, memberID string, status model.AnswerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	if candidateID == "" || memberID == "" {
		return fmt.Errorf("%w: candidate and member are required", ErrInvalidInput)
	}
	err := e.store.UpsertAnswer(ctx, model.Answer{
		CandidateID: candidateID,
		MemberID:    memberID,
		Status:      status,
		UpdatedAt:   e.opts.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return classify(err)
}

// Unanswered lists the project members without any answer in the
// poll, sorted by display name.
func (e *Engine) Unanswered(ctx context.Context, pollID string) ([]MemberRef, error) {
	snap, err := e.load(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return unanswered(snap), nil
}
