package handler // handler package contains the schedule poll handlers

import (
    "context"  // context flows from the request into the engine
    "errors"   // errors matches lookup failures
    "fmt"      // fmt wraps lookup failures
    "net/http" // http defines status codes
    "strings"  // strings helps with trimming whitespace
    "time"     // time parses candidate windows

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/OptimisticPessimist/pscweb3/internal/middleware" // authenticated identity accessors
    "github.com/OptimisticPessimist/pscweb3/internal/model"      // poll and candidate structs
    "github.com/OptimisticPessimist/pscweb3/internal/scheduling" // feasibility engine
)

// Engine is the subset of scheduling.Engine the handlers call.
type Engine interface {
    Analyze(ctx context.Context, pollID string) (*scheduling.CalendarAnalysis, error)
    Recommend(ctx context.Context, pollID string) ([]scheduling.Recommendation, error)
    UpsertAnswer(ctx context.Context, candidateID, memberID string, status model.AnswerStatus) error
    Unanswered(ctx context.Context, pollID string) ([]scheduling.MemberRef, error)
    Remind(ctx context.Context, pollID string, n scheduling.Notifier) (int, error)
}

// PollStore is the subset of repository.PollRepo the handlers call.
type PollStore interface {
    Create(ctx context.Context, p *model.SchedulePoll) error
    AddCandidate(ctx context.Context, c *model.Candidate) error
    DeleteCandidate(ctx context.Context, id string) error
    Close(ctx context.Context, pollID, candidateID string) error
    PollProject(ctx context.Context, pollID string) (string, error)
    CandidateProject(ctx context.Context, candidateID string) (string, error)
}

// PollHandler bundles the engine, poll persistence and the reminder
// notifier behind the /v1 poll routes.
type PollHandler struct {
    Engine           Engine              // Engine answers analysis, recommendation and answer calls
    Polls            PollStore           // Polls persists polls and candidates
    Notifier         scheduling.Notifier // Notifier receives reminder batches
    MaxRequiredRoles int                 // MaxRequiredRoles bounds the required_roles string
}

// NewPollHandler constructs a PollHandler and panics if any dependency is nil.
func NewPollHandler(engine Engine, polls PollStore, notifier scheduling.Notifier, maxRequiredRoles int) *PollHandler {
    if engine == nil || polls == nil || notifier == nil {
        panic("nil dependency passed to NewPollHandler")
    }
    if maxRequiredRoles <= 0 {
        maxRequiredRoles = scheduling.DefaultMaxRequiredRolesLen
    }
    return &PollHandler{Engine: engine, Polls: polls, Notifier: notifier, MaxRequiredRoles: maxRequiredRoles}
}

// authorize checks the token's project claim against the project that
// owns id.  A token without a project claim passes.  When done is true
// a response has already been written and err is the handler's result.
func authorize(c echo.Context, lookup func(context.Context, string) (string, error), id string) (done bool, err error) {
    scope := middleware.ProjectID(c)
    if scope == "" {
        return false, nil
    }
    projectID, err := lookup(c.Request().Context(), id)
    if err != nil {
        return true, writeError(c, err)
    }
    if projectID != scope {
        return true, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return false, nil
}

type pollResponse struct {
    ID                   string    `json:"id"`
    ProjectID            string    `json:"project_id"`
    Title                string    `json:"title"`
    CreatorID            string    `json:"creator_id"`
    IsClosed             bool      `json:"is_closed"`
    RequiredRoles        []string  `json:"required_roles"`
    FinalizedCandidateID *string   `json:"finalized_candidate_id"`
    CreatedAt            time.Time `json:"created_at"`
}

type candidateResponse struct {
    ID       string    `json:"id"`
    PollID   string    `json:"poll_id"`
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
}

// CreatePoll handles POST /v1/projects/:id/polls.  A token scoped to
// another project is rejected.
func (h *PollHandler) CreatePoll(c echo.Context) error {
    projectID := c.Param("id")
    if scope := middleware.ProjectID(c); scope != "" && scope != projectID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    var body struct {
        Title         string   `json:"title"`
        RequiredRoles []string `json:"required_roles"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    title := strings.TrimSpace(body.Title)
    if title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    roles := scheduling.JoinRequiredRoles(body.RequiredRoles) // trims, drops blanks and duplicates
    if err := scheduling.ValidateRequiredRoles(roles, h.MaxRequiredRoles); err != nil {
        return writeError(c, err)
    }

    p := &model.SchedulePoll{
        ProjectID:     projectID,
        Title:         title,
        CreatorID:     middleware.MemberID(c),
        RequiredRoles: roles,
    }
    if err := h.Polls.Create(c.Request().Context(), p); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toPollResponse(p))
}

func toPollResponse(p *model.SchedulePoll) pollResponse {
    roles := scheduling.ParseRequiredRoles(p.RequiredRoles)
    if roles == nil {
        roles = []string{}
    }
    return pollResponse{
        ID:                   p.ID,
        ProjectID:            p.ProjectID,
        Title:                p.Title,
        CreatorID:            p.CreatorID,
        IsClosed:             p.IsClosed,
        RequiredRoles:        roles,
        FinalizedCandidateID: p.FinalizedCandidateID,
        CreatedAt:            p.CreatedAt,
    }
}

// AddCandidate handles POST /v1/polls/:id/candidates with RFC 3339
// starts_at and ends_at.
func (h *PollHandler) AddCandidate(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    var body struct {
        StartsAt string `json:"starts_at"`
        EndsAt   string `json:"ends_at"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    start, err := time.Parse(time.RFC3339, strings.TrimSpace(body.StartsAt))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
    }
    end, err := time.Parse(time.RFC3339, strings.TrimSpace(body.EndsAt))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
    }
    if !start.Before(end) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
    }

    cand := &model.Candidate{PollID: c.Param("id"), StartsAt: start, EndsAt: end}
    if err := h.Polls.AddCandidate(c.Request().Context(), cand); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, candidateResponse{ID: cand.ID, PollID: cand.PollID, StartsAt: cand.StartsAt, EndsAt: cand.EndsAt})
}

// DeleteCandidate handles DELETE /v1/candidates/:id.  Answers for the
// candidate go with it.
func (h *PollHandler) DeleteCandidate(c echo.Context) error {
    if done, err := authorize(c, h.Polls.CandidateProject, c.Param("id")); done {
        return err
    }
    if err := h.Polls.DeleteCandidate(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ClosePoll handles POST /v1/polls/:id/close with the finalized
// candidate_id in the body.
func (h *PollHandler) ClosePoll(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    var body struct {
        CandidateID string `json:"candidate_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if strings.TrimSpace(body.CandidateID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "candidate_id is required"})
    }
    if err := h.Polls.Close(c.Request().Context(), c.Param("id"), strings.TrimSpace(body.CandidateID)); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"poll_id": c.Param("id"), "finalized_candidate_id": body.CandidateID, "is_closed": true})
}

// Analysis handles GET /v1/polls/:id/analysis.
func (h *PollHandler) Analysis(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    out, err := h.Engine.Analyze(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Recommendations handles GET /v1/polls/:id/recommendations.
func (h *PollHandler) Recommendations(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    recs, err := h.Engine.Recommend(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"poll_id": c.Param("id"), "recommendations": recs})
}

// UpsertAnswer handles PUT /v1/candidates/:id/answers/:member_id with
// {"status": "ok" | "maybe" | "ng"}.  Status is matched exactly.
func (h *PollHandler) UpsertAnswer(c echo.Context) error {
    if done, err := authorize(c, h.answerCandidateProject, c.Param("id")); done {
        return err
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    status := model.AnswerStatus(body.Status)
    if err := h.Engine.UpsertAnswer(c.Request().Context(), c.Param("id"), c.Param("member_id"), status); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"candidate_id": c.Param("id"), "member_id": c.Param("member_id"), "status": status})
}

// answerCandidateProject reports an unknown candidate as invalid input,
// the same way the engine does for answers.
func (h *PollHandler) answerCandidateProject(ctx context.Context, candidateID string) (string, error) {
    projectID, err := h.Polls.CandidateProject(ctx, candidateID)
    if errors.Is(err, scheduling.ErrNotFound) {
        return "", fmt.Errorf("%w: %v", scheduling.ErrInvalidInput, err)
    }
    return projectID, err
}

// Unanswered handles GET /v1/polls/:id/unanswered.
func (h *PollHandler) Unanswered(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    members, err := h.Engine.Unanswered(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"poll_id": c.Param("id"), "members": members})
}

// Remind handles POST /v1/polls/:id/remind and reports how many
// members were handed to the notifier.
func (h *PollHandler) Remind(c echo.Context) error {
    if done, err := authorize(c, h.Polls.PollProject, c.Param("id")); done {
        return err
    }
    n, err := h.Engine.Remind(c.Request().Context(), c.Param("id"), h.Notifier)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{"poll_id": c.Param("id"), "notified": n})
}
