package scheduling

import (
	"fmt"
	"strings"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// DefaultMaxRequiredRolesLen bounds the stored required-role string.
const DefaultMaxRequiredRolesLen = 512

// ParseRequiredRoles splits a comma-joined required-role string.
// Entries are whitespace-trimmed, empties dropped and duplicates
// removed keeping the first occurrence.  A blank string means no
// required roles.
func ParseRequiredRoles(s string) []string {
	return splitList(s)
}

// splitList is the comma-joined list format shared by required roles
// and notification targets.
func splitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// JoinRequiredRoles is the storage form of a parsed role list.
// JoinRequiredRoles(ParseRequiredRoles(s)) is a fixed point of
// ParseRequiredRoles.
func JoinRequiredRoles(roles []string) string {
	return strings.Join(ParseRequiredRoles(strings.Join(roles, ",")), ",")
}

// ValidateRequiredRoles rejects strings over limit bytes.  Whitespace
// only is legal.  limit <= 0 disables the check.
func ValidateRequiredRoles(s string, limit int) error {
	if limit > 0 && len(s) > limit {
		return fmt.Errorf("%w: required roles longer than %d bytes", ErrInvalidInput, limit)
	}
	return nil
}

// RequiredRole is one requested role name with the members that
// satisfy it.  MemberIDs may be empty; such a role fails every
// candidate.
type RequiredRole struct {
	Name      string
	MemberIDs []string
}

// ResolveRoles maps every role name to the union of the members whose
// staff role equals the name and the members cast in a character of
// that name.
func ResolveRoles(names []string, members []model.Member, cast *CastIndex) []RequiredRole {
	out := make([]RequiredRole, 0, len(names))
	for _, name := range names {
		set := make(map[string]struct{})
		for _, m := range members {
			if m.StaffRole != "" && m.StaffRole == name {
				set[m.ID] = struct{}{}
			}
		}
		for _, id := range cast.MembersPlaying(name) {
			set[id] = struct{}{}
		}
		out = append(out, RequiredRole{Name: name, MemberIDs: sortedKeys(set)})
	}
	return out
}

// RoleCheck is the required-roles result for one candidate.
type RoleCheck struct {
	// Missing lists the roles none of whose members is available,
	// in request order.
	Missing []string
	// Unknown is the subset of Missing that resolves to no member.
	Unknown []string
}

// Passed reports whether every required role is covered.
func (rc RoleCheck) Passed() bool { return len(rc.Missing) == 0 }

// Reason renders the failure for display; empty when the check passed.
func (rc RoleCheck) Reason() string {
	if rc.Passed() {
		return ""
	}
	unknown := make(map[string]struct{}, len(rc.Unknown))
	for _, r := range rc.Unknown {
		unknown[r] = struct{}{}
	}
	parts := make([]string, 0, len(rc.Missing))
	for _, r := range rc.Missing {
		if _, ok := unknown[r]; ok {
			parts = append(parts, "unknown role: "+r)
			continue
		}
		parts = append(parts, "missing required role: "+r)
	}
	return strings.Join(parts, "; ")
}

// CheckRoles tests every required role against av: a role is covered
// when one of its members is available (ok or maybe).
func CheckRoles(required []RequiredRole, av Availability) RoleCheck {
	rc := RoleCheck{Missing: []string{}}
	for _, r := range required {
		covered := false
		for _, id := range r.MemberIDs {
			if av.Available(id) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		rc.Missing = append(rc.Missing, r.Name)
		if len(r.MemberIDs) == 0 {
			rc.Unknown = append(rc.Unknown, r.Name)
		}
	}
	return rc
}

// RoleSummary describes what a member does in the production: the
// staff role first, then the characters played.
func RoleSummary(m model.Member, cast *CastIndex) string {
	var parts []string
	if s := strings.TrimSpace(m.StaffRole); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, cast.CharacterNames(m.ID)...)
	return strings.Join(parts, ", ")
}
