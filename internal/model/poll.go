package model

import "time"

// AnswerStatus is a member's reply for one candidate slot.
type AnswerStatus string

// Recognised answer statuses.  StatusPending is never stored; it is
// what the absence of an answer row means.
const (
    StatusOK      AnswerStatus = "ok"
    StatusMaybe   AnswerStatus = "maybe"
    StatusNG      AnswerStatus = "ng"
    StatusPending AnswerStatus = "pending"
)

// Valid reports whether s may be stored in an answer row.
func (s AnswerStatus) Valid() bool {
    switch s {
    case StatusOK, StatusMaybe, StatusNG:
        return true
    }
    return false
}

// SchedulePoll is a scheduling round of a project.  RequiredRoles is
// stored comma-joined, exactly as the chat notifier echoes it back.
//
// Fields:
//  ID                   – opaque identifier.
//  ProjectID            – owning project.
//  Title                – poll title shown to members.
//  CreatorID            – member who opened the poll.
//  IsClosed             – set when the coordinator finalizes a slot.
//  RequiredRoles        – comma-joined required role names.
//  FinalizedCandidateID – winning candidate (nil while open).
//  CreatedAt            – creation timestamp.
type SchedulePoll struct {
    ID                   string    // schedule_polls.id
    ProjectID            string    // schedule_polls.project_id
    Title                string    // schedule_polls.title
    CreatorID            string    // schedule_polls.creator_id
    IsClosed             bool      // schedule_polls.is_closed
    RequiredRoles        string    // schedule_polls.required_roles
    FinalizedCandidateID *string   // schedule_polls.finalized_candidate_id (nullable)
    CreatedAt            time.Time // schedule_polls.created_at
}

// Candidate is a proposed rehearsal window.  StartsAt is strictly
// before EndsAt; candidates of one poll may overlap.
type Candidate struct {
    ID       string    // schedule_candidates.id
    PollID   string    // schedule_candidates.poll_id
    StartsAt time.Time // schedule_candidates.starts_at
    EndsAt   time.Time // schedule_candidates.ends_at
}

// Answer records one member's status for one candidate.
type Answer struct {
    CandidateID string       // schedule_answers.candidate_id
    MemberID    string       // schedule_answers.member_id
    Status      AnswerStatus // schedule_answers.status
    UpdatedAt   time.Time    // schedule_answers.updated_at
}
