package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// SceneRef identifies a scene in the matrix header.
type SceneRef struct {
	SceneID string `json:"scene_id"`
	Ordinal int    `json:"ordinal"`
	Heading string `json:"heading"`
}

// MemberRef is a member as shown to the coordinator.
type MemberRef struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	RoleSummary string `json:"role_summary,omitempty"`
}

// SceneOutcome is a possible or reach scene at one candidate.
type SceneOutcome struct {
	SceneID            string   `json:"scene_id"`
	Ordinal            int      `json:"ordinal"`
	Heading            string   `json:"heading"`
	Possible           bool     `json:"possible"`
	Reach              bool     `json:"reach"`
	MissingMemberNames []string `json:"missing_member_names"`
	Reason             string   `json:"reason"`
	BlockingMembers    []string `json:"blocking_members,omitempty"`
}

// CandidateReport aggregates every scene evaluation of one candidate.
type CandidateReport struct {
	CandidateID          string         `json:"candidate_id"`
	Start                time.Time      `json:"start"`
	End                  time.Time      `json:"end"`
	PossibleScenes       []SceneOutcome `json:"possible_scenes"`
	ReachScenes          []SceneOutcome `json:"reach_scenes"`
	AvailableMembers     []MemberRef    `json:"available_members"`
	MaybeMembers         []MemberRef    `json:"maybe_members"`
	MissingRequiredRoles []string       `json:"missing_required_roles"`
	Eligible             bool           `json:"eligible"`
}

// CalendarAnalysis is the result of Engine.Analyze.  AllScenes lists
// the non-synopsis scenes of the current script by ordinal.
type CalendarAnalysis struct {
	PollID    string            `json:"poll_id"`
	AllScenes []SceneRef        `json:"all_scenes"`
	Analyses  []CandidateReport `json:"analyses"`
}

// Analyzer runs C1..C5 over one snapshot.
type Analyzer struct {
	snap       *model.PollSnapshot
	loc        *time.Location
	avail      *AvailabilityIndex
	cast       *CastIndex
	eval       *Evaluator
	required   []RequiredRole
	members    map[string]model.Member
	scenes     []model.Scene
	candidates []model.Candidate
}

// NewAnalyzer indexes the snapshot.  loc is the display location for
// candidate bounds; nil means UTC.
func NewAnalyzer(snap *model.PollSnapshot, loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.UTC
	}
	cast := ResolveCast(snap)
	a := &Analyzer{
		snap:     snap,
		loc:      loc,
		avail:    BuildAvailability(snap),
		cast:     cast,
		eval:     NewEvaluator(snap.Members, cast),
		required: ResolveRoles(ParseRequiredRoles(snap.Poll.RequiredRoles), snap.Members, cast),
		members:  make(map[string]model.Member, len(snap.Members)),
	}
	for _, m := range snap.Members {
		a.members[m.ID] = m
	}

	a.scenes = append([]model.Scene(nil), snap.Scenes...)
	sort.SliceStable(a.scenes, func(i, j int) bool { return a.scenes[i].Ordinal < a.scenes[j].Ordinal })

	a.candidates = append([]model.Candidate(nil), snap.Candidates...)
	sort.SliceStable(a.candidates, func(i, j int) bool {
		ci, cj := a.candidates[i], a.candidates[j]
		if !ci.StartsAt.Equal(cj.StartsAt) {
			return ci.StartsAt.Before(cj.StartsAt)
		}
		return ci.ID < cj.ID
	})
	return a
}

// Analyze reports every candidate.  Cancellation is checked between
// candidates; no partial result is returned.
func (a *Analyzer) Analyze(ctx context.Context) (*CalendarAnalysis, error) {
	out := &CalendarAnalysis{
		PollID:    a.snap.Poll.ID,
		AllScenes: a.sceneRefs(),
		Analyses:  make([]CandidateReport, 0, len(a.candidates)),
	}
	for _, c := range a.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Analyses = append(out.Analyses, a.Candidate(c))
	}
	return out, nil
}

// Candidate builds one candidate's report.
func (a *Analyzer) Candidate(c model.Candidate) CandidateReport {
	av := a.avail.For(c.ID)
	roles := CheckRoles(a.required, av)
	rep := CandidateReport{
		CandidateID:          c.ID,
		Start:                c.StartsAt.In(a.loc),
		End:                  c.EndsAt.In(a.loc),
		PossibleScenes:       []SceneOutcome{},
		ReachScenes:          []SceneOutcome{},
		MissingRequiredRoles: roles.Missing,
		Eligible:             roles.Passed(),
	}

	b := a.avail.Buckets(c.ID)
	rep.AvailableMembers = a.memberRefs(b.Available)
	rep.MaybeMembers = a.memberRefs(b.Maybe)

	for _, s := range a.scenes {
		ev := a.eval.Evaluate(s, av, roles)
		switch ev.Verdict {
		case VerdictPossible:
			rep.PossibleScenes = append(rep.PossibleScenes, outcome(ev))
		case VerdictReach:
			rep.ReachScenes = append(rep.ReachScenes, outcome(ev))
		}
	}
	return rep
}

func outcome(ev SceneEvaluation) SceneOutcome {
	names := ev.UnlockNames
	if names == nil {
		names = []string{}
	}
	return SceneOutcome{
		SceneID:            ev.Scene.ID,
		Ordinal:            ev.Scene.Ordinal,
		Heading:            ev.Scene.Heading,
		Possible:           ev.Verdict == VerdictPossible,
		Reach:              ev.Verdict == VerdictReach,
		MissingMemberNames: names,
		Reason:             ev.Reason,
		BlockingMembers:    ev.BlockingMembers,
	}
}

func (a *Analyzer) sceneRefs() []SceneRef {
	out := make([]SceneRef, 0, len(a.scenes))
	for _, s := range a.scenes {
		if s.IsSynopsis {
			continue
		}
		out = append(out, SceneRef{SceneID: s.ID, Ordinal: s.Ordinal, Heading: s.Heading})
	}
	return out
}

// memberRefs resolves ids, dedupes them and sorts by display name
// then id.
func (a *Analyzer) memberRefs(ids []string) []MemberRef {
	out := make([]MemberRef, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		m, ok := a.members[id]
		if !ok {
			continue
		}
		out = append(out, MemberRef{MemberID: m.ID, DisplayName: m.DisplayName, RoleSummary: RoleSummary(m, a.cast)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// Availability exposes the candidate's member statuses to the ranker.
func (a *Analyzer) Availability(candidateID string) Availability {
	return a.avail.For(candidateID)
}

// RequiredMembers returns the cast union of a scene.
func (a *Analyzer) RequiredMembers(sceneID string) []string {
	return a.cast.RequiredMembers(sceneID)
}

// PriorityMembers is the ranker's priority set: the required-role
// members when the poll has required roles, otherwise the members
// resolving to fallback.  Label names the roles the set came from.
func (a *Analyzer) PriorityMembers(fallback []string) (members []string, label []string) {
	roles := a.required
	if len(roles) == 0 {
		roles = ResolveRoles(ParseRequiredRoles(JoinRequiredRoles(fallback)), a.snap.Members, a.cast)
	}
	set := make(map[string]struct{})
	for _, r := range roles {
		label = append(label, r.Name)
		for _, id := range r.MemberIDs {
			set[id] = struct{}{}
		}
	}
	return sortedKeys(set), label
}
