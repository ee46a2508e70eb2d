package model

import "time"

// Script is one revision of a project's play text.  Revisions grow
// monotonically per project and at most one script is current.
type Script struct {
    ID        string    // scripts.id
    ProjectID string    // scripts.project_id
    Revision  int       // scripts.revision
    Title     string    // scripts.title
    IsCurrent bool      // scripts.is_current
    CreatedAt time.Time // scripts.created_at
}

// Character is a named role in a script.  Names are unique within
// a script.
type Character struct {
    ID       string // characters.id
    ScriptID string // characters.script_id
    Name     string // characters.name
}

// Casting assigns one member to one character.  A character may
// carry several castings (double-cast).
type Casting struct {
    CharacterID string // castings.character_id
    MemberID    string // castings.member_id
}

// Scene is one numbered scene of a script.  Synopsis scenes hold a
// summary rather than playable text and never take part in
// rehearsal planning.
type Scene struct {
    ID         string // scenes.id
    ScriptID   string // scenes.script_id
    Ordinal    int    // scenes.ordinal
    Heading    string // scenes.heading
    IsSynopsis bool   // scenes.is_synopsis
}

// SceneCharacter links a scene to a character appearing in it.
type SceneCharacter struct {
    SceneID     string // scene_characters.scene_id
    CharacterID string // scene_characters.character_id
}
