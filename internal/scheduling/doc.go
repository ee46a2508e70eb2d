/*
Package scheduling implements the schedule-poll feasibility engine.

Given one poll's snapshot (candidates, answers, the project's members and
the current script with its scenes, characters and castings) the engine
decides for every candidate which scenes can be rehearsed, which are one
refusal away ("reach"), whether the poll's required roles are covered, and
ranks the candidates for the coordinator.

# Pipeline

	BuildAvailability  member -> ok/maybe/ng/pending per candidate
	ResolveCast        scene -> characters, character -> cast set
	ResolveRoles       required role name -> member set
	Evaluator          (candidate, scene) -> possible / reach / infeasible
	Analyzer           per-candidate CandidateReport
	Ranker             top-K Recommendation

All of these are pure functions of the snapshot. Engine wraps them behind
the four operations the web layer calls (Analyze, Recommend, UpsertAnswer,
Unanswered) plus Remind, which hands unanswered members to a Notifier.

# Pending is optimistic

A member without an answer row is pending. Pending never blocks a
character; only an explicit ng from every cast member (or an empty cast)
does. Possibility is about the absence of refusal, reach about a single
unfilled character.

# Errors

Every operation either returns a full result or one of ErrNotFound,
ErrInvalidInput, ErrTimeout or ErrInternal (matched with errors.Is). The
engine never logs and never retries.
*/
package scheduling
