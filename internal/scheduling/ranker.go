package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// Score weights.
const (
	scoreOK            = 10
	scoreMaybe         = 5
	bonusPriorityOK    = 20
	bonusPriorityMaybe = 10
)

// ScenePreview is one possible scene inside a recommendation.
type ScenePreview struct {
	SceneID string `json:"scene_id"`
	Ordinal int    `json:"ordinal"`
	Heading string `json:"heading"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

// Recommendation is a ranked candidate.
type Recommendation struct {
	CandidateID           string         `json:"candidate_id"`
	Start                 time.Time      `json:"start"`
	End                   time.Time      `json:"end"`
	Score                 int            `json:"score"`
	SummaryReason         string         `json:"summary_reason"`
	PossibleScenePreviews []ScenePreview `json:"possible_scene_previews"`
}

// Ranker scores candidate reports.  Zero values of TopK and
// PreviewLimit fall back to 3 and 5.
type Ranker struct {
	TopK          int
	PreviewLimit  int
	PriorityRoles []string
}

type scored struct {
	rec   Recommendation
	start time.Time
}

// Rank scores every report of analysis and returns at most TopK
// recommendations.  Candidates with a positive score win, ordered by
// score then earlier start; if none is positive the earliest
// zero-score candidates are returned instead.
func (r Ranker) Rank(ctx context.Context, an *Analyzer, analysis *CalendarAnalysis) ([]Recommendation, error) {
	topK, previewLimit := r.TopK, r.PreviewLimit
	if topK <= 0 {
		topK = 3
	}
	if previewLimit <= 0 {
		previewLimit = 5
	}
	priority, label := an.PriorityMembers(r.PriorityRoles)

	all := make([]scored, 0, len(analysis.Analyses))
	for _, rep := range analysis.Analyses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		all = append(all, scored{rec: r.score(an, rep, priority, label, previewLimit), start: rep.Start})
	}

	var pool []scored
	for _, s := range all {
		if s.rec.Score > 0 {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		pool = all
	}
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.rec.Score != b.rec.Score {
			return a.rec.Score > b.rec.Score
		}
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		return a.rec.CandidateID < b.rec.CandidateID
	})
	if len(pool) > topK {
		pool = pool[:topK]
	}
	out := make([]Recommendation, 0, len(pool))
	for _, s := range pool {
		out = append(out, s.rec)
	}
	return out, nil
}

func (r Ranker) score(an *Analyzer, rep CandidateReport, priority, label []string, previewLimit int) Recommendation {
	rec := Recommendation{
		CandidateID:           rep.CandidateID,
		Start:                 rep.Start,
		End:                   rep.End,
		PossibleScenePreviews: []ScenePreview{},
	}
	av := an.Availability(rep.CandidateID)

	if !rep.Eligible {
		rec.SummaryReason = "missing required roles: " + strings.Join(rep.MissingRequiredRoles, ", ")
		return rec
	}

	bonus := priorityBonus(priority, av)
	previews := make([]ScenePreview, 0, len(rep.PossibleScenes))
	cast := make(map[string]struct{})
	for _, so := range rep.PossibleScenes {
		required := an.RequiredMembers(so.SceneID)
		s := sceneScore(required, av) + bonus
		for _, id := range required {
			cast[id] = struct{}{}
		}
		rec.Score += s
		previews = append(previews, ScenePreview{
			SceneID: so.SceneID,
			Ordinal: so.Ordinal,
			Heading: so.Heading,
			Score:   s,
			Reason:  so.Reason,
		})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		if previews[i].Score != previews[j].Score {
			return previews[i].Score > previews[j].Score
		}
		return previews[i].Ordinal < previews[j].Ordinal
	})
	if len(previews) > previewLimit {
		previews = previews[:previewLimit]
	}
	rec.PossibleScenePreviews = previews
	rec.SummaryReason = summarize(cast, av, priority, label, len(rep.AvailableMembers))
	return rec
}

func sceneScore(required []string, av Availability) int {
	s := 0
	for _, id := range required {
		switch av.Status(id) {
		case model.StatusOK:
			s += scoreOK
		case model.StatusMaybe:
			s += scoreMaybe
		}
	}
	return s
}

func priorityBonus(priority []string, av Availability) int {
	maybe := false
	for _, id := range priority {
		switch av.Status(id) {
		case model.StatusOK:
			return bonusPriorityOK
		case model.StatusMaybe:
			maybe = true
		}
	}
	if maybe {
		return bonusPriorityMaybe
	}
	return 0
}

func summarize(cast map[string]struct{}, av Availability, priority, label []string, available int) string {
	ok := 0
	for id := range cast {
		if av.Status(id) == model.StatusOK {
			ok++
		}
	}
	switch {
	case len(cast) > 0 && ok == len(cast):
		return "all required cast ok"
	case ok > 0:
		return fmt.Sprintf("%d required cast ok", ok)
	}
	for _, id := range priority {
		if av.Status(id) == model.StatusOK {
			return strings.Join(label, "/") + " ok"
		}
	}
	if available > 0 {
		return fmt.Sprintf("%d members available", available)
	}
	return "no scene rehearsable yet"
}
