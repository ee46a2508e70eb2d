package model

// PollSnapshot is everything the scheduling engine needs for one
// poll, read in a single transaction.  Script is nil when the
// project has no current script; Scenes, Characters, Castings and
// SceneCharacters are then empty.
type PollSnapshot struct {
    Poll            SchedulePoll
    Project         Project
    Members         []Member
    Candidates      []Candidate
    Answers         []Answer
    Script          *Script
    Scenes          []Scene
    Characters      []Character
    Castings        []Casting
    SceneCharacters []SceneCharacter
}
