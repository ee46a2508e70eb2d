package scheduling

import (
	"time"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// Availability maps a member id to that member's status at one
// candidate.  Every project member has an entry; members without an
// answer row are pending.
type Availability map[string]model.AnswerStatus

// Status returns the member's status, pending when unknown.
func (a Availability) Status(memberID string) model.AnswerStatus {
	if s, ok := a[memberID]; ok {
		return s
	}
	return model.StatusPending
}

// Available reports whether the member answered ok or maybe.
func (a Availability) Available(memberID string) bool {
	s := a.Status(memberID)
	return s == model.StatusOK || s == model.StatusMaybe
}

// Buckets splits the members of one candidate by status.  Available
// is OK ∪ Maybe and Blocking is NG; Maybe is kept separately for
// display.  Ids keep the project's member order.
type Buckets struct {
	OK        []string
	Maybe     []string
	Available []string
	Blocking  []string
	Pending   []string
}

// AvailabilityIndex holds one Availability per candidate of a poll.
type AvailabilityIndex struct {
	members     []model.Member
	byCandidate map[string]Availability
}

// BuildAvailability indexes the snapshot's answers per candidate.
// Answers for candidates outside the poll, for members outside the
// project or with an unknown status are ignored.  Should the input
// carry two rows for one (candidate, member) key, the most recently
// updated one wins.
func BuildAvailability(snap *model.PollSnapshot) *AvailabilityIndex {
	idx := &AvailabilityIndex{
		members:     snap.Members,
		byCandidate: make(map[string]Availability, len(snap.Candidates)),
	}
	for _, c := range snap.Candidates {
		av := make(Availability, len(snap.Members))
		for _, m := range snap.Members {
			av[m.ID] = model.StatusPending
		}
		idx.byCandidate[c.ID] = av
	}

	type key struct{ candidate, member string }
	seen := make(map[key]time.Time, len(snap.Answers))
	for _, a := range snap.Answers {
		av, ok := idx.byCandidate[a.CandidateID]
		if !ok || !a.Status.Valid() {
			continue
		}
		if _, ok := av[a.MemberID]; !ok {
			continue
		}
		k := key{a.CandidateID, a.MemberID}
		if prev, dup := seen[k]; dup && prev.After(a.UpdatedAt) {
			continue
		}
		seen[k] = a.UpdatedAt
		av[a.MemberID] = a.Status
	}
	return idx
}

// For returns the availability at a candidate.  An unknown candidate
// yields an empty map, i.e. everyone pending.
func (idx *AvailabilityIndex) For(candidateID string) Availability {
	if av, ok := idx.byCandidate[candidateID]; ok {
		return av
	}
	return Availability{}
}

// Buckets classifies every project member at the candidate.
func (idx *AvailabilityIndex) Buckets(candidateID string) Buckets {
	av := idx.For(candidateID)
	var b Buckets
	for _, m := range idx.members {
		switch av.Status(m.ID) {
		case model.StatusOK:
			b.OK = append(b.OK, m.ID)
			b.Available = append(b.Available, m.ID)
		case model.StatusMaybe:
			b.Maybe = append(b.Maybe, m.ID)
			b.Available = append(b.Available, m.ID)
		case model.StatusNG:
			b.Blocking = append(b.Blocking, m.ID)
		default:
			b.Pending = append(b.Pending, m.ID)
		}
	}
	return b
}

// AnsweredMembers returns the set of members holding at least one
// answer row at any candidate of the poll.
func AnsweredMembers(snap *model.PollSnapshot) map[string]struct{} {
	inPoll := make(map[string]struct{}, len(snap.Candidates))
	for _, c := range snap.Candidates {
		inPoll[c.ID] = struct{}{}
	}
	out := make(map[string]struct{})
	for _, a := range snap.Answers {
		if _, ok := inPoll[a.CandidateID]; ok {
			out[a.MemberID] = struct{}{}
		}
	}
	return out
}
