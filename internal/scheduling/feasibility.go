package scheduling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// Verdict is the outcome of evaluating one scene at one candidate.
type Verdict int

const (
	// VerdictExcluded marks synopsis scenes; they appear nowhere.
	VerdictExcluded Verdict = iota
	// VerdictInfeasible: two or more blockers, or required roles
	// uncovered.
	VerdictInfeasible
	// VerdictReach: exactly one blocker.
	VerdictReach
	// VerdictPossible: no blocker.
	VerdictPossible
)

func (v Verdict) String() string {
	switch v {
	case VerdictExcluded:
		return "excluded"
	case VerdictInfeasible:
		return "infeasible"
	case VerdictReach:
		return "reach"
	case VerdictPossible:
		return "possible"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// SceneEvaluation is the evaluator's result for one (candidate, scene)
// pair.
type SceneEvaluation struct {
	Scene    model.Scene
	Verdict  Verdict
	Blockers []model.Character
	// BlockingMembers are the ng cast members of the blockers.
	BlockingMembers []string
	// UnlockNames are the display names of the single blocker's cast
	// (reach only).  Empty for an uncast blocker.
	UnlockNames []string
	Reason      string
}

// Evaluator decides scene feasibility for a fixed cast and member
// directory.
type Evaluator struct {
	cast  *CastIndex
	names map[string]string
}

// NewEvaluator binds an evaluator to the snapshot's members.
func NewEvaluator(members []model.Member, cast *CastIndex) *Evaluator {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName
	}
	return &Evaluator{cast: cast, names: names}
}

// Evaluate classifies scene at a candidate whose availability is av.
// When roles did not pass no scene can be possible or reach.
func (e *Evaluator) Evaluate(scene model.Scene, av Availability, roles RoleCheck) SceneEvaluation {
	ev := SceneEvaluation{Scene: scene}
	if scene.IsSynopsis {
		ev.Verdict = VerdictExcluded
		ev.Reason = "synopsis"
		return ev
	}

	for _, ch := range e.cast.SceneCharacters(scene.ID) {
		members := e.cast.Cast(ch.ID)
		if blocked(members, av) {
			ev.Blockers = append(ev.Blockers, ch)
			ev.BlockingMembers = append(ev.BlockingMembers, members...)
		}
	}
	ev.BlockingMembers = dedupe(ev.BlockingMembers)

	switch {
	case !roles.Passed():
		ev.Verdict = VerdictInfeasible
		ev.Reason = roles.Reason()
	case len(ev.Blockers) == 0:
		ev.Verdict = VerdictPossible
		ev.Reason = e.coverage(scene.ID, av)
	case len(ev.Blockers) == 1:
		ev.Verdict = VerdictReach
		ch := ev.Blockers[0]
		cast := e.cast.Cast(ch.ID)
		if len(cast) == 0 {
			ev.UnlockNames = []string{}
			ev.Reason = "uncast: " + ch.Name
			break
		}
		ev.UnlockNames = e.displayNames(cast)
		ev.Reason = fmt.Sprintf("%s needs %s", ch.Name, strings.Join(ev.UnlockNames, " or "))
	default:
		ev.Verdict = VerdictInfeasible
		ev.Reason = e.blockedReason(ev.Blockers)
	}
	return ev
}

// blocked reports whether no cast member can fill the character: the
// cast is empty or every member answered ng.  Pending never blocks.
func blocked(cast []string, av Availability) bool {
	for _, id := range cast {
		if av.Status(id) != model.StatusNG {
			return false
		}
	}
	return true
}

func (e *Evaluator) coverage(sceneID string, av Availability) string {
	required := e.cast.RequiredMembers(sceneID)
	if len(required) == 0 {
		return "no cast required"
	}
	var ok, maybe, pending, ng int
	for _, id := range required {
		switch av.Status(id) {
		case model.StatusOK:
			ok++
		case model.StatusMaybe:
			maybe++
		case model.StatusNG:
			ng++
		default:
			pending++
		}
	}
	parts := []string{fmt.Sprintf("ok %d/%d", ok, len(required))}
	if maybe > 0 {
		parts = append(parts, fmt.Sprintf("maybe %d", maybe))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("pending %d", pending))
	}
	if ng > 0 {
		parts = append(parts, fmt.Sprintf("ng %d covered by double-cast", ng))
	}
	return strings.Join(parts, ", ")
}

func (e *Evaluator) blockedReason(blockers []model.Character) string {
	parts := make([]string, 0, len(blockers))
	for _, ch := range blockers {
		if len(e.cast.Cast(ch.ID)) == 0 {
			parts = append(parts, ch.Name+" (no cast assigned)")
			continue
		}
		parts = append(parts, ch.Name)
	}
	return "blocked: " + strings.Join(parts, ", ")
}

// displayNames maps member ids to display names sorted by name.
func (e *Evaluator) displayNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.names[id])
	}
	sort.Strings(out)
	return out
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return sortedKeys(set)
}
