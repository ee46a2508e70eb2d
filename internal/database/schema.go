package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is the schema this binary writes.
const SchemaVersion = 1

// schema lists one statement per entry; drivers are not asked to run
// multi-statement strings.  Foreign keys are declared at table level
// because MySQL ignores inline column REFERENCES.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER NOT NULL
){suffix}`,
	`CREATE TABLE IF NOT EXISTS projects (
  id {id} NOT NULL PRIMARY KEY,
  name {name} NOT NULL,
  required_roles_hint {text} NOT NULL,
  notify_targets {text} NOT NULL,
  created_at {ts} NOT NULL
){suffix}`,
	`CREATE TABLE IF NOT EXISTS members (
  id {id} NOT NULL PRIMARY KEY,
  project_id {id} NOT NULL,
  external_id {name} NOT NULL,
  display_name {name} NOT NULL,
  staff_role {name} NOT NULL,
  created_at {ts} NOT NULL,
  UNIQUE (project_id, external_id),
  FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS scripts (
  id {id} NOT NULL PRIMARY KEY,
  project_id {id} NOT NULL,
  revision INTEGER NOT NULL,
  title {name} NOT NULL,
  is_current {bool} NOT NULL,
  created_at {ts} NOT NULL,
  UNIQUE (project_id, revision),
  FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS characters (
  id {id} NOT NULL PRIMARY KEY,
  script_id {id} NOT NULL,
  name {name} NOT NULL,
  UNIQUE (script_id, name),
  FOREIGN KEY (script_id) REFERENCES scripts(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS castings (
  character_id {id} NOT NULL,
  member_id {id} NOT NULL,
  PRIMARY KEY (character_id, member_id),
  FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
  FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS scenes (
  id {id} NOT NULL PRIMARY KEY,
  script_id {id} NOT NULL,
  ordinal INTEGER NOT NULL,
  heading {text} NOT NULL,
  is_synopsis {bool} NOT NULL,
  UNIQUE (script_id, ordinal),
  FOREIGN KEY (script_id) REFERENCES scripts(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS scene_characters (
  scene_id {id} NOT NULL,
  character_id {id} NOT NULL,
  PRIMARY KEY (scene_id, character_id),
  FOREIGN KEY (scene_id) REFERENCES scenes(id) ON DELETE CASCADE,
  FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS schedule_polls (
  id {id} NOT NULL PRIMARY KEY,
  project_id {id} NOT NULL,
  title {name} NOT NULL,
  creator_id {id} NOT NULL,
  is_closed {bool} NOT NULL,
  required_roles {text} NOT NULL,
  finalized_candidate_id {id} NULL,
  created_at {ts} NOT NULL,
  FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS schedule_candidates (
  id {id} NOT NULL PRIMARY KEY,
  poll_id {id} NOT NULL,
  starts_at {ts} NOT NULL,
  ends_at {ts} NOT NULL,
  CHECK (starts_at < ends_at),
  FOREIGN KEY (poll_id) REFERENCES schedule_polls(id) ON DELETE CASCADE
){suffix}`,
	`CREATE TABLE IF NOT EXISTS schedule_answers (
  candidate_id {id} NOT NULL,
  member_id {id} NOT NULL,
  status VARCHAR(8) NOT NULL,
  updated_at {ts} NOT NULL,
  PRIMARY KEY (candidate_id, member_id),
  CHECK (status IN ('ok', 'maybe', 'ng')),
  FOREIGN KEY (candidate_id) REFERENCES schedule_candidates(id) ON DELETE CASCADE,
  FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
){suffix}`,
}

// Migrate creates every table that does not exist yet and records
// the schema version.  It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, d.expand(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var v int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", v, SchemaVersion)
	}
	return nil
}
