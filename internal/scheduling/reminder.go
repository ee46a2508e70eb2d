package scheduling

import (
	"context"
	"sort"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// Recipient is one member to remind.
type Recipient struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	ExternalID  string `json:"external_id"`
}

// ReminderBatch is what a Notifier receives for one poll.
type ReminderBatch struct {
	PollID        string      `json:"poll_id"`
	PollTitle     string      `json:"poll_title"`
	ProjectID     string      `json:"project_id"`
	ProjectName   string      `json:"project_name"`
	NotifyTargets []string    `json:"notify_targets,omitempty"`
	Recipients    []Recipient `json:"recipients"`
}

// Notifier delivers reminders.  It may drop recipients (cooldown) and
// reports how many it actually handed on.
type Notifier interface {
	NotifyUnanswered(ctx context.Context, batch ReminderBatch) (int, error)
}

func unansweredMembers(snap *model.PollSnapshot) []model.Member {
	engaged := AnsweredMembers(snap)
	out := make([]model.Member, 0, len(snap.Members))
	for _, m := range snap.Members {
		if _, ok := engaged[m.ID]; !ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func unanswered(snap *model.PollSnapshot) []MemberRef {
	cast := ResolveCast(snap)
	members := unansweredMembers(snap)
	out := make([]MemberRef, 0, len(members))
	for _, m := range members {
		out = append(out, MemberRef{MemberID: m.ID, DisplayName: m.DisplayName, RoleSummary: RoleSummary(m, cast)})
	}
	return out
}

// Remind hands the poll's unanswered members to n and returns the
// number of members n reported as notified.  Nothing is sent when
// every member has answered.
func (e *Engine) Remind(ctx context.Context, pollID string, n Notifier) (int, error) {
	snap, err := e.load(ctx, pollID)
	if err != nil {
		return 0, err
	}
	members := unansweredMembers(snap)
	if len(members) == 0 {
		return 0, nil
	}
	batch := ReminderBatch{
		PollID:        snap.Poll.ID,
		PollTitle:     snap.Poll.Title,
		ProjectID:     snap.Project.ID,
		ProjectName:   snap.Project.Name,
		NotifyTargets: splitList(snap.Project.NotifyTargets),
		Recipients:    make([]Recipient, 0, len(members)),
	}
	for _, m := range members {
		batch.Recipients = append(batch.Recipients, Recipient{MemberID: m.ID, DisplayName: m.DisplayName, ExternalID: m.ExternalID})
	}
	sent, err := n.NotifyUnanswered(ctx, batch)
	if err != nil {
		return sent, classify(err)
	}
	return sent, nil
}
