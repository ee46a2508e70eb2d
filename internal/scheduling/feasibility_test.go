package scheduling

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

func TestEvaluate(t *testing.T) {
	const (
		ok      = model.StatusOK
		maybe   = model.StatusMaybe
		ng      = model.StatusNG
		pending = model.StatusPending
	)
	snap := newBuilder().
		member("M1", "Alice", "").
		member("M2", "Bob", "").
		member("M3", "Carol", "").
		character("HAMLET", "M1").
		character("HORATIO", "M2").
		character("ROMEO", "M2", "M3").
		character("GHOST").
		scene("solo", 1, "HAMLET").
		scene("pair", 2, "HAMLET", "HORATIO").
		scene("double", 3, "ROMEO").
		scene("uncast", 4, "HAMLET", "GHOST").
		scene("empty", 5).
		synopsis("syn", 0, "HAMLET").
		build()
	ci := ResolveCast(snap)
	ev := NewEvaluator(snap.Members, ci)
	scenes := map[string]model.Scene{}
	for _, s := range snap.Scenes {
		scenes[s.ID] = s
	}
	pass := RoleCheck{Missing: []string{}}

	tests := []struct {
		name     string
		scene    string
		av       Availability
		roles    RoleCheck
		verdict  Verdict
		unlock   []string
		blockers []string
		reason   string
	}{
		{name: "single cast ok", scene: "solo", av: Availability{"M1": ok}, roles: pass, verdict: VerdictPossible, reason: "ok 1/1"},
		{name: "pending is optimistic", scene: "solo", av: Availability{"M1": pending}, roles: pass, verdict: VerdictPossible, reason: "ok 0/1, pending 1"},
		{name: "maybe counts as available", scene: "solo", av: Availability{"M1": maybe}, roles: pass, verdict: VerdictPossible, reason: "ok 0/1, maybe 1"},
		{name: "single refusal is reach", scene: "solo", av: Availability{"M1": ng}, roles: pass, verdict: VerdictReach,
			unlock: []string{"Alice"}, blockers: []string{"M1"}, reason: "HAMLET needs Alice"},
		{name: "one of two characters refused", scene: "pair", av: Availability{"M1": ok, "M2": ng}, roles: pass, verdict: VerdictReach,
			unlock: []string{"Bob"}, blockers: []string{"M2"}, reason: "HORATIO needs Bob"},
		{name: "two refusals are infeasible", scene: "pair", av: Availability{"M1": ng, "M2": ng}, roles: pass, verdict: VerdictInfeasible,
			blockers: []string{"M1", "M2"}, reason: "blocked: HAMLET, HORATIO"},
		{name: "double cast covers refusal", scene: "double", av: Availability{"M2": ng, "M3": ok}, roles: pass, verdict: VerdictPossible,
			reason: "ok 1/2, ng 1 covered by double-cast"},
		{name: "double cast both pending", scene: "double", av: Availability{}, roles: pass, verdict: VerdictPossible, reason: "ok 0/2, pending 2"},
		{name: "double cast both refused", scene: "double", av: Availability{"M2": ng, "M3": ng}, roles: pass, verdict: VerdictReach,
			unlock: []string{"Bob", "Carol"}, blockers: []string{"M2", "M3"}, reason: "ROMEO needs Bob or Carol"},
		{name: "uncast only blocker", scene: "uncast", av: Availability{"M1": ok}, roles: pass, verdict: VerdictReach,
			unlock: []string{}, reason: "uncast: GHOST"},
		{name: "uncast plus refusal", scene: "uncast", av: Availability{"M1": ng}, roles: pass, verdict: VerdictInfeasible,
			blockers: []string{"M1"}, reason: "blocked: GHOST (no cast assigned), HAMLET"},
		{name: "scene without characters", scene: "empty", av: Availability{}, roles: pass, verdict: VerdictPossible, reason: "no cast required"},
		{name: "synopsis excluded", scene: "syn", av: Availability{"M1": ok}, roles: pass, verdict: VerdictExcluded, reason: "synopsis"},
		{name: "roles failure suppresses possible", scene: "solo", av: Availability{"M1": ok},
			roles: RoleCheck{Missing: []string{"director"}, Unknown: []string{"director"}}, verdict: VerdictInfeasible, reason: "unknown role: director"},
		{name: "roles failure suppresses reach", scene: "solo", av: Availability{"M1": ng},
			roles: RoleCheck{Missing: []string{"director"}}, verdict: VerdictInfeasible, blockers: []string{"M1"}, reason: "missing required role: director"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Evaluate(scenes[tt.scene], tt.av, tt.roles)
			if got.Verdict != tt.verdict {
				t.Fatalf("Expected %s, got %s (%s)", tt.verdict, got.Verdict, got.Reason)
			}
			if got.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, got.Reason)
			}
			if diff := cmp.Diff(tt.unlock, got.UnlockNames); diff != "" {
				t.Errorf("unlock names (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.blockers, got.BlockingMembers); diff != "" {
				t.Errorf("blocking members (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	if VerdictReach.String() != "reach" || Verdict(42).String() != "Verdict(42)" {
		t.Errorf("unexpected Verdict strings: %s %s", VerdictReach, Verdict(42))
	}
}
