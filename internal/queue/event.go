// Package queue defines message payloads exchanged over the message broker.
package queue

// ReminderQueue is the default queue reminder events are published to.
const ReminderQueue = "poll.reminder"

// ReminderEvent is published when a coordinator asks for the members
// who have not answered a poll to be reminded.  It carries enough for a
// chat or email worker to address each member without querying the
// primary database.
type ReminderEvent struct {
    PollID        string              `json:"poll_id"`
    PollTitle     string              `json:"poll_title"`
    ProjectID     string              `json:"project_id"`
    ProjectName   string              `json:"project_name"`
    NotifyTargets []string            `json:"notify_targets,omitempty"`
    Recipients    []ReminderRecipient `json:"recipients"`
    RequestedAt   string              `json:"requested_at"`
}

// ReminderRecipient is one member to remind.  ExternalID is the chat
// identity the member registered with.
type ReminderRecipient struct {
    MemberID    string `json:"member_id"`
    DisplayName string `json:"display_name"`
    ExternalID  string `json:"external_id"`
}
