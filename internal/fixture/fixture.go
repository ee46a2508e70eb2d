// Package fixture loads a production (project, members, script, polls
// and answers) from YAML and writes it through the repositories.  The
// seed command uses it to stand up demo and test data.
package fixture

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/model"
	"github.com/OptimisticPessimist/pscweb3/internal/repository"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// Production is the root of a fixture file.  Members, characters and
// candidates are referenced by their fixture-local Key.
type Production struct {
	Project ProjectSpec  `yaml:"project"`
	Members []MemberSpec `yaml:"members"`
	Script  *ScriptSpec  `yaml:"script"`
	Polls   []PollSpec   `yaml:"polls"`
}

type ProjectSpec struct {
	Name          string   `yaml:"name"`
	NotifyTargets []string `yaml:"notify_targets"`
}

type MemberSpec struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	ExternalID string `yaml:"external_id"`
	StaffRole  string `yaml:"staff_role"`
}

type ScriptSpec struct {
	Title      string          `yaml:"title"`
	Characters []CharacterSpec `yaml:"characters"`
	Scenes     []SceneSpec     `yaml:"scenes"`
}

type CharacterSpec struct {
	Name string   `yaml:"name"`
	Cast []string `yaml:"cast"`
}

// SceneSpec lists the characters appearing in a scene by name.
// Ordinals follow file order starting at 1.
type SceneSpec struct {
	Heading    string   `yaml:"heading"`
	Synopsis   bool     `yaml:"synopsis"`
	Characters []string `yaml:"characters"`
}

type PollSpec struct {
	Title         string          `yaml:"title"`
	Creator       string          `yaml:"creator"`
	RequiredRoles []string        `yaml:"required_roles"`
	Candidates    []CandidateSpec `yaml:"candidates"`
}

// CandidateSpec maps member keys to ok, maybe or ng.
type CandidateSpec struct {
	StartsAt time.Time         `yaml:"starts_at"`
	EndsAt   time.Time         `yaml:"ends_at"`
	Answers  map[string]string `yaml:"answers"`
}

// LoadFile reads and validates a fixture file.
func LoadFile(path string) (*Production, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Load(data)
}

// Load parses and validates fixture YAML.  Unknown fields are errors.
func Load(data []byte) (*Production, error) {
	var p Production
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse fixture yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks references between sections.  All problems are
// reported together.
func (p *Production) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Project.Name) == "" {
		errs = append(errs, errors.New("project.name is required"))
	}
	members := map[string]bool{}
	for i, m := range p.Members {
		switch {
		case m.Key == "":
			errs = append(errs, fmt.Errorf("members[%d]: key is required", i))
		case members[m.Key]:
			errs = append(errs, fmt.Errorf("members[%d]: duplicate key %q", i, m.Key))
		}
		members[m.Key] = true
	}
	if p.Script != nil {
		chars := map[string]bool{}
		for i, c := range p.Script.Characters {
			if c.Name == "" {
				errs = append(errs, fmt.Errorf("script.characters[%d]: name is required", i))
			}
			chars[c.Name] = true
			for _, k := range c.Cast {
				if !members[k] {
					errs = append(errs, fmt.Errorf("script.characters[%d]: unknown member %q", i, k))
				}
			}
		}
		for i, s := range p.Script.Scenes {
			for _, name := range s.Characters {
				if !chars[name] {
					errs = append(errs, fmt.Errorf("script.scenes[%d]: unknown character %q", i, name))
				}
			}
		}
	}
	for i, poll := range p.Polls {
		if poll.Creator != "" && !members[poll.Creator] {
			errs = append(errs, fmt.Errorf("polls[%d]: unknown creator %q", i, poll.Creator))
		}
		for j, c := range poll.Candidates {
			if !c.StartsAt.Before(c.EndsAt) {
				errs = append(errs, fmt.Errorf("polls[%d].candidates[%d]: starts_at must be before ends_at", i, j))
			}
			for k, status := range c.Answers {
				if !members[k] {
					errs = append(errs, fmt.Errorf("polls[%d].candidates[%d]: unknown member %q", i, j, k))
				}
				if !model.AnswerStatus(status).Valid() {
					errs = append(errs, fmt.Errorf("polls[%d].candidates[%d]: invalid status %q for %s", i, j, status, k))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Result holds the ids assigned while seeding.
type Result struct {
	ProjectID  string
	MemberIDs  map[string]string
	ScriptID   string
	PollIDs    []string
	Candidates int
	Answers    int
}

// Seeder writes productions through the repositories.
type Seeder struct {
	Projects *repository.ProjectRepo
	Members  *repository.MemberRepo
	Scripts  *repository.ScriptRepo
	Polls    *repository.PollRepo
	Answers  *repository.AnswerRepo
	Now      func() time.Time
}

// NewSeeder builds a Seeder over db.
func NewSeeder(db *sql.DB, d database.Dialect) *Seeder {
	return &Seeder{
		Projects: repository.NewProjectRepo(db),
		Members:  repository.NewMemberRepo(db),
		Scripts:  repository.NewScriptRepo(db),
		Polls:    repository.NewPollRepo(db),
		Answers:  repository.NewAnswerRepo(db, d),
		Now:      time.Now,
	}
}

// Seed inserts p as a new project.
func (s *Seeder) Seed(ctx context.Context, p *Production) (*Result, error) {
	proj := &model.Project{Name: p.Project.Name, NotifyTargets: strings.Join(p.Project.NotifyTargets, ",")}
	if err := s.Projects.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	res := &Result{ProjectID: proj.ID, MemberIDs: map[string]string{}}

	for _, m := range p.Members {
		name := m.Name
		if name == "" {
			name = m.Key
		}
		ext := m.ExternalID
		if ext == "" {
			ext = m.Key
		}
		mem := &model.Member{ProjectID: proj.ID, ExternalID: ext, DisplayName: name, StaffRole: m.StaffRole}
		if err := s.Members.Create(ctx, mem); err != nil {
			return nil, fmt.Errorf("create member %s: %w", m.Key, err)
		}
		res.MemberIDs[m.Key] = mem.ID
	}

	if p.Script != nil {
		id, err := s.seedScript(ctx, proj.ID, p.Script, res.MemberIDs)
		if err != nil {
			return nil, err
		}
		res.ScriptID = id
	}

	for _, ps := range p.Polls {
		if err := s.seedPoll(ctx, proj.ID, ps, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Seeder) seedScript(ctx context.Context, projectID string, def *ScriptSpec, members map[string]string) (string, error) {
	script := &model.Script{ProjectID: projectID, Title: def.Title}
	if err := s.Scripts.Create(ctx, script); err != nil {
		return "", fmt.Errorf("create script: %w", err)
	}
	chars := map[string]string{}
	for _, cs := range def.Characters {
		c := &model.Character{ScriptID: script.ID, Name: cs.Name}
		if err := s.Scripts.AddCharacter(ctx, c); err != nil {
			return "", fmt.Errorf("add character %s: %w", cs.Name, err)
		}
		chars[cs.Name] = c.ID
		for _, k := range cs.Cast {
			if err := s.Scripts.AddCasting(ctx, model.Casting{CharacterID: c.ID, MemberID: members[k]}); err != nil {
				return "", fmt.Errorf("cast %s as %s: %w", k, cs.Name, err)
			}
		}
	}
	for i, ss := range def.Scenes {
		scene := &model.Scene{ScriptID: script.ID, Ordinal: i + 1, Heading: ss.Heading, IsSynopsis: ss.Synopsis}
		if err := s.Scripts.AddScene(ctx, scene); err != nil {
			return "", fmt.Errorf("add scene %d: %w", i+1, err)
		}
		for _, name := range ss.Characters {
			if err := s.Scripts.LinkSceneCharacter(ctx, model.SceneCharacter{SceneID: scene.ID, CharacterID: chars[name]}); err != nil {
				return "", fmt.Errorf("link scene %d to %s: %w", i+1, name, err)
			}
		}
	}
	return script.ID, nil
}

func (s *Seeder) seedPoll(ctx context.Context, projectID string, ps PollSpec, res *Result) error {
	poll := &model.SchedulePoll{
		ProjectID:     projectID,
		Title:         ps.Title,
		CreatorID:     res.MemberIDs[ps.Creator],
		RequiredRoles: scheduling.JoinRequiredRoles(ps.RequiredRoles),
	}
	if err := s.Polls.Create(ctx, poll); err != nil {
		return fmt.Errorf("create poll %q: %w", ps.Title, err)
	}
	res.PollIDs = append(res.PollIDs, poll.ID)

	now := s.Now().UTC()
	for _, cs := range ps.Candidates {
		c := &model.Candidate{PollID: poll.ID, StartsAt: cs.StartsAt, EndsAt: cs.EndsAt}
		if err := s.Polls.AddCandidate(ctx, c); err != nil {
			return fmt.Errorf("add candidate %s: %w", cs.StartsAt.Format(time.RFC3339), err)
		}
		res.Candidates++
		for key, status := range cs.Answers {
			a := model.Answer{CandidateID: c.ID, MemberID: res.MemberIDs[key], Status: model.AnswerStatus(status), UpdatedAt: now}
			if err := s.Answers.Upsert(ctx, a); err != nil {
				return fmt.Errorf("answer %s at %s: %w", key, cs.StartsAt.Format(time.RFC3339), err)
			}
			res.Answers++
		}
	}
	return nil
}
