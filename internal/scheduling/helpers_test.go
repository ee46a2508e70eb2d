package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

var baseTime = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

// builder assembles a PollSnapshot for poll "P" of project "proj"
// with current script "S".  Character ids are "ch-" + name.
type builder struct {
	snap *model.PollSnapshot
}

func newBuilder() *builder {
	return &builder{snap: &model.PollSnapshot{
		Poll:    model.SchedulePoll{ID: "P", ProjectID: "proj", Title: "April rehearsals", CreatorID: "M1"},
		Project: model.Project{ID: "proj", Name: "Hamlet 2025"},
		Script:  &model.Script{ID: "S", ProjectID: "proj", Revision: 1, IsCurrent: true},
	}}
}

func (b *builder) member(id, name, staffRole string) *builder {
	b.snap.Members = append(b.snap.Members, model.Member{
		ID: id, ProjectID: "proj", ExternalID: "ext-" + id, DisplayName: name, StaffRole: staffRole,
	})
	return b
}

func (b *builder) character(name string, cast ...string) *builder {
	id := "ch-" + name
	b.snap.Characters = append(b.snap.Characters, model.Character{ID: id, ScriptID: "S", Name: name})
	for _, m := range cast {
		b.snap.Castings = append(b.snap.Castings, model.Casting{CharacterID: id, MemberID: m})
	}
	return b
}

func (b *builder) scene(id string, ordinal int, characters ...string) *builder {
	b.snap.Scenes = append(b.snap.Scenes, model.Scene{ID: id, ScriptID: "S", Ordinal: ordinal, Heading: fmt.Sprintf("Scene %d", ordinal)})
	for _, name := range characters {
		b.snap.SceneCharacters = append(b.snap.SceneCharacters, model.SceneCharacter{SceneID: id, CharacterID: "ch-" + name})
	}
	return b
}

func (b *builder) synopsis(id string, ordinal int, characters ...string) *builder {
	b.scene(id, ordinal, characters...)
	b.snap.Scenes[len(b.snap.Scenes)-1].IsSynopsis = true
	return b
}

// candidate adds a two-hour slot starting hours after baseTime.
func (b *builder) candidate(id string, hours int) *builder {
	start := baseTime.Add(time.Duration(hours) * time.Hour)
	b.snap.Candidates = append(b.snap.Candidates, model.Candidate{ID: id, PollID: "P", StartsAt: start, EndsAt: start.Add(2 * time.Hour)})
	return b
}

func (b *builder) answer(candidateID, memberID string, st model.AnswerStatus) *builder {
	b.snap.Answers = append(b.snap.Answers, model.Answer{CandidateID: candidateID, MemberID: memberID, Status: st, UpdatedAt: baseTime})
	return b
}

func (b *builder) requiredRoles(s string) *builder {
	b.snap.Poll.RequiredRoles = s
	return b
}

func (b *builder) build() *model.PollSnapshot { return b.snap }

// fakeStore serves snapshots from memory and applies upserts to them
// with last-writer-wins.
type fakeStore struct {
	mu    sync.Mutex
	snaps map[string]*model.PollSnapshot
	err   error
}

func newFakeStore(snaps ...*model.PollSnapshot) *fakeStore {
	fs := &fakeStore{snaps: make(map[string]*model.PollSnapshot)}
	for _, s := range snaps {
		fs.snaps[s.Poll.ID] = s
	}
	return fs
}

func (fs *fakeStore) LoadPollSnapshot(ctx context.Context, pollID string) (*model.PollSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.err != nil {
		return nil, fs.err
	}
	s, ok := fs.snaps[pollID]
	if !ok {
		return nil, fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}
	cp := *s
	cp.Answers = append([]model.Answer(nil), s.Answers...)
	return &cp, nil
}

func (fs *fakeStore) UpsertAnswer(ctx context.Context, a model.Answer) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.err != nil {
		return fs.err
	}
	for _, s := range fs.snaps {
		if !hasCandidate(s, a.CandidateID) {
			continue
		}
		if !hasMember(s, a.MemberID) {
			return fmt.Errorf("member %s: %w", a.MemberID, ErrNotFound)
		}
		for i, old := range s.Answers {
			if old.CandidateID == a.CandidateID && old.MemberID == a.MemberID {
				if !a.UpdatedAt.Before(old.UpdatedAt) {
					s.Answers[i] = a
				}
				return nil
			}
		}
		s.Answers = append(s.Answers, a)
		return nil
	}
	return fmt.Errorf("candidate %s: %w", a.CandidateID, ErrNotFound)
}

func hasCandidate(s *model.PollSnapshot, id string) bool {
	for _, c := range s.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

func hasMember(s *model.PollSnapshot, id string) bool {
	for _, m := range s.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

func sceneIDs(outs []SceneOutcome) []string {
	ids := []string{}
	for _, o := range outs {
		ids = append(ids, o.SceneID)
	}
	return ids
}

func memberIDs(refs []MemberRef) []string {
	ids := []string{}
	for _, r := range refs {
		ids = append(ids, r.MemberID)
	}
	return ids
}
