package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/OptimisticPessimist/pscweb3/internal/handler"
	"github.com/OptimisticPessimist/pscweb3/internal/model"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
	"github.com/OptimisticPessimist/pscweb3/internal/utils"
)

const secret = "router-secret"

type memStore struct{ snap *model.PollSnapshot }

func (m memStore) LoadPollSnapshot(ctx context.Context, pollID string) (*model.PollSnapshot, error) {
	if pollID != m.snap.Poll.ID {
		return nil, scheduling.ErrNotFound
	}
	return m.snap, nil
}

func (m memStore) UpsertAnswer(ctx context.Context, a model.Answer) error { return nil }

type nopPolls struct{}

func (nopPolls) Create(ctx context.Context, p *model.SchedulePoll) error    { p.ID = "new"; return nil }
func (nopPolls) AddCandidate(ctx context.Context, c *model.Candidate) error { return nil }
func (nopPolls) DeleteCandidate(ctx context.Context, id string) error       { return nil }
func (nopPolls) Close(ctx context.Context, pollID, candidateID string) error {
	return nil
}

func (nopPolls) PollProject(ctx context.Context, pollID string) (string, error) {
	if pollID != "P" {
		return "", scheduling.ErrNotFound
	}
	return "proj", nil
}

func (nopPolls) CandidateProject(ctx context.Context, candidateID string) (string, error) {
	if candidateID != "C1" {
		return "", scheduling.ErrNotFound
	}
	return "proj", nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyUnanswered(ctx context.Context, b scheduling.ReminderBatch) (int, error) {
	return len(b.Recipients), nil
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	snap := &model.PollSnapshot{
		Project: model.Project{ID: "proj", Name: "Hamlet"},
		Poll:    model.SchedulePoll{ID: "P", ProjectID: "proj", Title: "April"},
		Members: []model.Member{{ID: "m1", ProjectID: "proj", DisplayName: "Ann"}},
	}
	eng := scheduling.NewEngine(memStore{snap: snap}, scheduling.Options{})
	h := handler.NewPollHandler(eng, nopPolls{}, nopNotifier{}, 0)

	e := echo.New()
	RegisterRoutes(e)
	RegisterCoordinator(e, h, secret)
	RegisterMember(e, h, secret, func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	return e
}

func token(t *testing.T, member, role string) string {
	t.Helper()
	return scopedToken(t, member, "proj", role)
}

func scopedToken(t *testing.T, member, project, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, member, project, role, 5)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func TestRoutes(t *testing.T) {
	e := newServer(t)
	coord := token(t, "c1", utils.RoleCoordinator)
	member := token(t, "m1", utils.RoleMember)
	outsider := scopedToken(t, "m1", "other-project", utils.RoleMember)
	outsideCoord := scopedToken(t, "c9", "other-project", utils.RoleCoordinator)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		status int
	}{
		{"health is public", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"analysis needs a token", http.MethodGet, "/v1/polls/P/analysis", "", "", http.StatusUnauthorized},
		{"member reads analysis", http.MethodGet, "/v1/polls/P/analysis", member, "", http.StatusOK},
		{"member reads recommendations", http.MethodGet, "/v1/polls/P/recommendations", member, "", http.StatusOK},
		{"unknown poll", http.MethodGet, "/v1/polls/X/unanswered", member, "", http.StatusNotFound},
		{"member cannot create polls", http.MethodPost, "/v1/projects/proj/polls", member, `{"title":"x"}`, http.StatusForbidden},
		{"coordinator creates polls", http.MethodPost, "/v1/projects/proj/polls", coord, `{"title":"x"}`, http.StatusCreated},
		{"coordinator reminds", http.MethodPost, "/v1/polls/P/remind", coord, "", http.StatusAccepted},
		{"member answers for self", http.MethodPut, "/v1/candidates/C1/answers/m1", member, `{"status":"ok"}`, http.StatusOK},
		{"member answers for other", http.MethodPut, "/v1/candidates/C1/answers/m2", member, `{"status":"ok"}`, http.StatusForbidden},
		{"coordinator answers for other", http.MethodPut, "/v1/candidates/C1/answers/m2", coord, `{"status":"maybe"}`, http.StatusOK},
		{"other project reads analysis", http.MethodGet, "/v1/polls/P/analysis", outsider, "", http.StatusForbidden},
		{"other project reads unanswered", http.MethodGet, "/v1/polls/P/unanswered", outsider, "", http.StatusForbidden},
		{"other project answers", http.MethodPut, "/v1/candidates/C1/answers/m1", outsider, `{"status":"ok"}`, http.StatusForbidden},
		{"other project reminds", http.MethodPost, "/v1/polls/P/remind", outsideCoord, "", http.StatusForbidden},
		{"other project closes", http.MethodPost, "/v1/polls/P/close", outsideCoord, `{"candidate_id":"C1"}`, http.StatusForbidden},
		{"other project deletes candidate", http.MethodDelete, "/v1/candidates/C1", outsideCoord, "", http.StatusForbidden},
		{"other project adds candidate", http.MethodPost, "/v1/polls/P/candidates", outsideCoord, `{"starts_at":"2025-04-01T19:00:00Z","ends_at":"2025-04-01T22:00:00Z"}`, http.StatusForbidden},
		{"uppercase status rejected", http.MethodPut, "/v1/candidates/C1/answers/m1", member, `{"status":"OK"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.auth)
			}
			if tt.body != "" {
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}
