package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// ScriptRepo stores script revisions and the scene/character matrix
// derived from them.  Creating a revision makes it the project's only
// current script.
type ScriptRepo struct {
	db *sql.DB
}

// NewScriptRepo returns a new ScriptRepo bound to the given database.
func NewScriptRepo(db *sql.DB) *ScriptRepo { return &ScriptRepo{db: db} }

// Create inserts s as the next revision of its project and marks it
// current.  s.Revision is overwritten with the assigned number.
func (r *ScriptRepo) Create(ctx context.Context, s *model.Script) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var last int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) FROM scripts WHERE project_id = ?`, s.ProjectID).Scan(&last); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE scripts SET is_current = ? WHERE project_id = ?`, false, s.ProjectID); err != nil {
		return err
	}
	s.Revision = last + 1
	s.IsCurrent = true
	const ins = `INSERT INTO scripts (id, project_id, revision, title, is_current, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, s.ID, s.ProjectID, s.Revision, s.Title, s.IsCurrent, s.CreatedAt); err != nil {
		switch {
		case isDuplicate(err):
			return ErrConflict
		case isForeignKey(err):
			return notFound("project", s.ProjectID)
		}
		return err
	}
	return tx.Commit()
}

// Current returns the project's current script or ErrNotFound.
func (r *ScriptRepo) Current(ctx context.Context, projectID string) (*model.Script, error) {
	return currentScript(ctx, r.db, projectID)
}

func currentScript(ctx context.Context, q queryer, projectID string) (*model.Script, error) {
	const sel = `SELECT id, project_id, revision, title, is_current, created_at FROM scripts WHERE project_id = ? AND is_current = ? ORDER BY revision DESC LIMIT 1`
	var s model.Script
	err := q.QueryRowContext(ctx, sel, projectID, true).Scan(&s.ID, &s.ProjectID, &s.Revision, &s.Title, &s.IsCurrent, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("current script of project", projectID)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddCharacter inserts a character; names are unique per script.
func (r *ScriptRepo) AddCharacter(ctx context.Context, c *model.Character) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO characters (id, script_id, name) VALUES (?, ?, ?)`, c.ID, c.ScriptID, c.Name)
	return r.mapWriteErr(err, "script", c.ScriptID)
}

// AddScene inserts a scene; ordinals are unique per script.
func (r *ScriptRepo) AddScene(ctx context.Context, s *model.Scene) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const ins = `INSERT INTO scenes (id, script_id, ordinal, heading, is_synopsis) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, ins, s.ID, s.ScriptID, s.Ordinal, s.Heading, s.IsSynopsis)
	return r.mapWriteErr(err, "script", s.ScriptID)
}

// AddCasting assigns a member to a character.  Adding the same pair
// twice is a no-op.
func (r *ScriptRepo) AddCasting(ctx context.Context, c model.Casting) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO castings (character_id, member_id) VALUES (?, ?)`, c.CharacterID, c.MemberID)
	if isDuplicate(err) {
		return nil
	}
	return r.mapWriteErr(err, "character or member", c.CharacterID+"/"+c.MemberID)
}

// LinkSceneCharacter records that a character appears in a scene.
// Linking the same pair twice is a no-op.
func (r *ScriptRepo) LinkSceneCharacter(ctx context.Context, l model.SceneCharacter) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO scene_characters (scene_id, character_id) VALUES (?, ?)`, l.SceneID, l.CharacterID)
	if isDuplicate(err) {
		return nil
	}
	return r.mapWriteErr(err, "scene or character", l.SceneID+"/"+l.CharacterID)
}

func (r *ScriptRepo) mapWriteErr(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return ErrConflict
	case isForeignKey(err):
		return notFound(kind, id)
	}
	return err
}

// scriptMatrix loads the scenes, characters, castings and scene links
// of one script.
func scriptMatrix(ctx context.Context, q queryer, scriptID string, snap *model.PollSnapshot) error {
	rows, err := q.QueryContext(ctx, `SELECT id, script_id, ordinal, heading, is_synopsis FROM scenes WHERE script_id = ? ORDER BY ordinal`, scriptID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var s model.Scene
		if err := rows.Scan(&s.ID, &s.ScriptID, &s.Ordinal, &s.Heading, &s.IsSynopsis); err != nil {
			rows.Close()
			return err
		}
		snap.Scenes = append(snap.Scenes, s)
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT id, script_id, name FROM characters WHERE script_id = ? ORDER BY name`, scriptID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var c model.Character
		if err := rows.Scan(&c.ID, &c.ScriptID, &c.Name); err != nil {
			rows.Close()
			return err
		}
		snap.Characters = append(snap.Characters, c)
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT c.character_id, c.member_id FROM castings c
JOIN characters ch ON ch.id = c.character_id
WHERE ch.script_id = ? ORDER BY c.character_id, c.member_id`, scriptID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var c model.Casting
		if err := rows.Scan(&c.CharacterID, &c.MemberID); err != nil {
			rows.Close()
			return err
		}
		snap.Castings = append(snap.Castings, c)
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT sc.scene_id, sc.character_id FROM scene_characters sc
JOIN scenes s ON s.id = sc.scene_id
WHERE s.script_id = ? ORDER BY sc.scene_id, sc.character_id`, scriptID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var l model.SceneCharacter
		if err := rows.Scan(&l.SceneID, &l.CharacterID); err != nil {
			rows.Close()
			return err
		}
		snap.SceneCharacters = append(snap.SceneCharacters, l)
	}
	return closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
