package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/model"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

var t0 = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*sql.DB, database.Dialect) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, d, err := database.Open(database.Params{Driver: database.DriverSQLite, Path: dbPath})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db, d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, d
}

func mustCount(t *testing.T, db *sql.DB, q string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

// seeded holds the ids of a small production: two members, HAMLET
// cast to m1, one scene, one poll with two candidates.
type seeded struct {
	project, m1, m2, script, hamlet, scene, poll, c1, c2 string
}

func seed(t *testing.T, db *sql.DB) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded

	p := &model.Project{Name: "Hamlet 2025", NotifyTargets: "discord:1"}
	if err := NewProjectRepo(db).Create(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	s.project = p.ID

	members := NewMemberRepo(db)
	alice := &model.Member{ProjectID: p.ID, ExternalID: "alice@example.org", DisplayName: "Alice"}
	bob := &model.Member{ProjectID: p.ID, ExternalID: "bob@example.org", DisplayName: "Bob", StaffRole: " director "}
	for _, m := range []*model.Member{alice, bob} {
		if err := members.Create(ctx, m); err != nil {
			t.Fatalf("create member: %v", err)
		}
	}
	s.m1, s.m2 = alice.ID, bob.ID

	scripts := NewScriptRepo(db)
	sc := &model.Script{ProjectID: p.ID, Title: "Hamlet"}
	if err := scripts.Create(ctx, sc); err != nil {
		t.Fatalf("create script: %v", err)
	}
	s.script = sc.ID
	ch := &model.Character{ScriptID: sc.ID, Name: "HAMLET"}
	if err := scripts.AddCharacter(ctx, ch); err != nil {
		t.Fatalf("add character: %v", err)
	}
	s.hamlet = ch.ID
	scene := &model.Scene{ScriptID: sc.ID, Ordinal: 1, Heading: "Elsinore"}
	if err := scripts.AddScene(ctx, scene); err != nil {
		t.Fatalf("add scene: %v", err)
	}
	s.scene = scene.ID
	if err := scripts.AddCasting(ctx, model.Casting{CharacterID: ch.ID, MemberID: alice.ID}); err != nil {
		t.Fatalf("add casting: %v", err)
	}
	if err := scripts.LinkSceneCharacter(ctx, model.SceneCharacter{SceneID: scene.ID, CharacterID: ch.ID}); err != nil {
		t.Fatalf("link: %v", err)
	}

	polls := NewPollRepo(db)
	poll := &model.SchedulePoll{ProjectID: p.ID, Title: "April", CreatorID: bob.ID}
	if err := polls.Create(ctx, poll); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	s.poll = poll.ID
	c1 := &model.Candidate{PollID: poll.ID, StartsAt: t0.Add(24 * time.Hour), EndsAt: t0.Add(26 * time.Hour)}
	c2 := &model.Candidate{PollID: poll.ID, StartsAt: t0, EndsAt: t0.Add(2 * time.Hour)}
	for _, c := range []*model.Candidate{c1, c2} {
		if err := polls.AddCandidate(ctx, c); err != nil {
			t.Fatalf("add candidate: %v", err)
		}
	}
	s.c1, s.c2 = c1.ID, c2.ID
	return s
}

func TestMemberRepo(t *testing.T) {
	db, _ := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	repo := NewMemberRepo(db)

	dup := &model.Member{ProjectID: s.project, ExternalID: "alice@example.org", DisplayName: "Alice again"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate identity, got %v", err)
	}
	orphan := &model.Member{ProjectID: "nope", ExternalID: "x", DisplayName: "X"}
	if err := repo.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown project, got %v", err)
	}

	bob, err := repo.GetByExternalID(ctx, s.project, "bob@example.org")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if bob.ID != s.m2 || bob.StaffRole != "director" {
		t.Errorf("unexpected member: %+v", bob)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	list, err := repo.ListByProject(ctx, s.project)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(list) != 2 || list[0].DisplayName != "Alice" {
		t.Errorf("unexpected members: %+v", list)
	}
}

func TestScriptRepoRevisions(t *testing.T) {
	db, _ := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	repo := NewScriptRepo(db)

	next := &model.Script{ProjectID: s.project, Title: "Hamlet (cut)"}
	if err := repo.Create(ctx, next); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if next.Revision != 2 {
		t.Errorf("Expected revision 2, got %d", next.Revision)
	}
	cur, err := repo.Current(ctx, s.project)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.ID != next.ID {
		t.Errorf("Expected the new revision to be current, got %+v", cur)
	}
	if n := mustCount(t, db, `SELECT COUNT(*) FROM scripts WHERE project_id = ? AND is_current = ?`, s.project, true); n != 1 {
		t.Errorf("Expected exactly one current script, got %d", n)
	}

	if err := repo.AddCharacter(ctx, &model.Character{ScriptID: s.script, Name: "HAMLET"}); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate character name, got %v", err)
	}
	if err := repo.AddCasting(ctx, model.Casting{CharacterID: s.hamlet, MemberID: s.m1}); err != nil {
		t.Errorf("Expected repeated casting to be a no-op, got %v", err)
	}
	if err := repo.AddCasting(ctx, model.Casting{CharacterID: s.hamlet, MemberID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown member, got %v", err)
	}
}

func TestAnswerUpsertLastWriterWins(t *testing.T) {
	db, d := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	repo := NewAnswerRepo(db, d)

	write := func(st model.AnswerStatus, at time.Time) {
		t.Helper()
		if err := repo.Upsert(ctx, model.Answer{CandidateID: s.c1, MemberID: s.m1, Status: st, UpdatedAt: at}); err != nil {
			t.Fatalf("Upsert(%s): %v", st, err)
		}
	}
	write(model.StatusOK, t0.Add(time.Minute))
	write(model.StatusOK, t0.Add(time.Minute))
	if n := mustCount(t, db, `SELECT COUNT(*) FROM schedule_answers`); n != 1 {
		t.Fatalf("Expected one row after identical upserts, got %d", n)
	}

	write(model.StatusNG, t0)
	got, err := repo.Get(ctx, s.c1, s.m1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusOK || !got.UpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("Expected the older write to be ignored, got %+v", got)
	}

	write(model.StatusMaybe, t0.Add(time.Hour))
	got, err = repo.Get(ctx, s.c1, s.m1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusMaybe || !got.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("Expected the newer write to win, got %+v", got)
	}

	other := &model.Project{Name: "Other"}
	if err := NewProjectRepo(db).Create(ctx, other); err != nil {
		t.Fatalf("create project: %v", err)
	}
	stranger := &model.Member{ProjectID: other.ID, ExternalID: "s", DisplayName: "Stranger"}
	if err := NewMemberRepo(db).Create(ctx, stranger); err != nil {
		t.Fatalf("create member: %v", err)
	}
	tests := []struct {
		name              string
		candidate, member string
	}{
		{"unknown candidate", "nope", s.m1},
		{"unknown member", s.c1, "nope"},
		{"member of another project", s.c1, stranger.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Upsert(ctx, model.Answer{CandidateID: tt.candidate, MemberID: tt.member, Status: model.StatusOK, UpdatedAt: t0})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDeleteCandidateCascades(t *testing.T) {
	db, d := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()

	if err := NewAnswerRepo(db, d).Upsert(ctx, model.Answer{CandidateID: s.c1, MemberID: s.m1, Status: model.StatusOK, UpdatedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	polls := NewPollRepo(db)
	if err := polls.DeleteCandidate(ctx, s.c1); err != nil {
		t.Fatalf("DeleteCandidate: %v", err)
	}
	if n := mustCount(t, db, `SELECT COUNT(*) FROM schedule_answers WHERE candidate_id = ?`, s.c1); n != 0 {
		t.Errorf("Expected answers to cascade, got %d", n)
	}
	if err := polls.DeleteCandidate(ctx, s.c1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPollRepo(t *testing.T) {
	db, _ := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	polls := NewPollRepo(db)

	bad := &model.Candidate{PollID: s.poll, StartsAt: t0, EndsAt: t0}
	if err := polls.AddCandidate(ctx, bad); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Expected ErrInvalidWindow, got %v", err)
	}
	orphan := &model.Candidate{PollID: "nope", StartsAt: t0, EndsAt: t0.Add(time.Hour)}
	if err := polls.AddCandidate(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown poll, got %v", err)
	}

	cands, err := polls.ListCandidates(ctx, s.poll)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(cands) != 2 || cands[0].ID != s.c2 {
		t.Errorf("Expected candidates ordered by start, got %+v", cands)
	}

	open, err := polls.ListOpenByProject(ctx, s.project)
	if err != nil || len(open) != 1 {
		t.Fatalf("Expected one open poll, got %d (%v)", len(open), err)
	}

	if err := polls.Close(ctx, s.poll, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign candidate, got %v", err)
	}
	if err := polls.Close(ctx, s.poll, s.c2); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p, err := polls.GetByID(ctx, s.poll)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !p.IsClosed || p.FinalizedCandidateID == nil || *p.FinalizedCandidateID != s.c2 {
		t.Errorf("Expected closed poll finalized on %s, got %+v", s.c2, p)
	}
	open, err = polls.ListOpenByProject(ctx, s.project)
	if err != nil || len(open) != 0 {
		t.Errorf("Expected no open polls, got %d (%v)", len(open), err)
	}
}

func TestPollRepoProjectLookups(t *testing.T) {
	db, _ := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	polls := NewPollRepo(db)

	got, err := polls.PollProject(ctx, s.poll)
	if err != nil || got != s.project {
		t.Errorf("PollProject = %q, %v; want %q", got, err, s.project)
	}
	got, err = polls.CandidateProject(ctx, s.c1)
	if err != nil || got != s.project {
		t.Errorf("CandidateProject = %q, %v; want %q", got, err, s.project)
	}
	if _, err := polls.PollProject(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown poll, got %v", err)
	}
	if _, err := polls.CandidateProject(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown candidate, got %v", err)
	}
}

func TestLoadPollSnapshot(t *testing.T) {
	db, d := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	repo := NewSnapshotRepo(db, d)

	if err := repo.UpsertAnswer(ctx, model.Answer{CandidateID: s.c1, MemberID: s.m1, Status: model.StatusOK, UpdatedAt: t0}); err != nil {
		t.Fatalf("UpsertAnswer: %v", err)
	}
	snap, err := repo.LoadPollSnapshot(ctx, s.poll)
	if err != nil {
		t.Fatalf("LoadPollSnapshot: %v", err)
	}
	if snap.Poll.ID != s.poll || snap.Project.ID != s.project || snap.Script == nil || snap.Script.ID != s.script {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Members) != 2 || len(snap.Candidates) != 2 || len(snap.Answers) != 1 {
		t.Errorf("unexpected sizes: %d members, %d candidates, %d answers", len(snap.Members), len(snap.Candidates), len(snap.Answers))
	}
	if !snap.Candidates[0].StartsAt.Equal(t0) {
		t.Errorf("Expected first candidate at %v, got %v", t0, snap.Candidates[0].StartsAt)
	}
	if diff := cmp.Diff([]model.Casting{{CharacterID: s.hamlet, MemberID: s.m1}}, snap.Castings); diff != "" {
		t.Errorf("castings (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.SceneCharacter{{SceneID: s.scene, CharacterID: s.hamlet}}, snap.SceneCharacters); diff != "" {
		t.Errorf("scene links (-want +got):\n%s", diff)
	}

	if _, err := repo.LoadPollSnapshot(ctx, "missing"); !errors.Is(err, scheduling.ErrNotFound) {
		t.Errorf("Expected scheduling.ErrNotFound, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := repo.LoadPollSnapshot(cancelled, s.poll); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSnapshotWithoutScript(t *testing.T) {
	db, d := newTestDB(t)
	ctx := context.Background()
	p := &model.Project{Name: "Empty"}
	if err := NewProjectRepo(db).Create(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	poll := &model.SchedulePoll{ProjectID: p.ID, Title: "t", CreatorID: "x", RequiredRoles: "director"}
	if err := NewPollRepo(db).Create(ctx, poll); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	snap, err := NewSnapshotRepo(db, d).LoadPollSnapshot(ctx, poll.ID)
	if err != nil {
		t.Fatalf("LoadPollSnapshot: %v", err)
	}
	if snap.Script != nil || len(snap.Scenes) != 0 {
		t.Errorf("Expected no script, got %+v", snap.Script)
	}
	if snap.Poll.RequiredRoles != "director" || snap.Poll.FinalizedCandidateID != nil {
		t.Errorf("unexpected poll: %+v", snap.Poll)
	}
}

func TestEngineOverSQLite(t *testing.T) {
	db, d := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	engine := scheduling.NewEngine(NewSnapshotRepo(db, d), scheduling.Options{})

	if err := engine.UpsertAnswer(ctx, s.c1, s.m1, model.StatusOK); err != nil {
		t.Fatalf("UpsertAnswer: %v", err)
	}
	if err := engine.UpsertAnswer(ctx, s.c1, "nope", model.StatusOK); !errors.Is(err, scheduling.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown member, got %v", err)
	}

	recs, err := engine.Recommend(ctx, s.poll)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 || recs[0].CandidateID != s.c1 {
		t.Fatalf("Expected c1 recommended, got %+v", recs)
	}
	// scene +10 for Alice, priority bonus: Bob (director) is pending
	if recs[0].Score != 10 || recs[0].SummaryReason != "all required cast ok" {
		t.Errorf("unexpected recommendation: %+v", recs[0])
	}

	un, err := engine.Unanswered(ctx, s.poll)
	if err != nil {
		t.Fatalf("Unanswered: %v", err)
	}
	if len(un) != 1 || un[0].MemberID != s.m2 {
		t.Errorf("Expected Bob unanswered, got %+v", un)
	}
}
