package scheduling

import (
	"sort"

	"github.com/OptimisticPessimist/pscweb3/internal/model"
)

// CastIndex holds the scene/character/member adjacency of one script.
// It is rebuilt per engine call and never shared.
type CastIndex struct {
	characters map[string]model.Character
	byName     map[string][]string // name -> character ids
	scenes     map[string][]string // scene id -> character ids, by name
	cast       map[string][]string // character id -> member ids, sorted
	roles      map[string][]string // member id -> character names, sorted
}

// ResolveCast builds the adjacency lists from the snapshot's flat
// tables.  Characters without castings are kept with an empty cast.
// Castings of members outside the project and links to unknown
// scenes or characters are dropped.
func ResolveCast(snap *model.PollSnapshot) *CastIndex {
	ci := &CastIndex{
		characters: make(map[string]model.Character, len(snap.Characters)),
		byName:     make(map[string][]string),
		scenes:     make(map[string][]string, len(snap.Scenes)),
		cast:       make(map[string][]string, len(snap.Characters)),
		roles:      make(map[string][]string),
	}
	members := make(map[string]struct{}, len(snap.Members))
	for _, m := range snap.Members {
		members[m.ID] = struct{}{}
	}
	for _, ch := range snap.Characters {
		ci.characters[ch.ID] = ch
		ci.byName[ch.Name] = append(ci.byName[ch.Name], ch.ID)
		ci.cast[ch.ID] = nil
	}
	for _, s := range snap.Scenes {
		ci.scenes[s.ID] = nil
	}

	castSeen := make(map[model.Casting]struct{}, len(snap.Castings))
	for _, c := range snap.Castings {
		ch, ok := ci.characters[c.CharacterID]
		if !ok {
			continue
		}
		if _, ok := members[c.MemberID]; !ok {
			continue
		}
		if _, dup := castSeen[c]; dup {
			continue
		}
		castSeen[c] = struct{}{}
		ci.cast[c.CharacterID] = append(ci.cast[c.CharacterID], c.MemberID)
		ci.roles[c.MemberID] = append(ci.roles[c.MemberID], ch.Name)
	}
	for id := range ci.cast {
		sort.Strings(ci.cast[id])
	}
	for id := range ci.roles {
		sort.Strings(ci.roles[id])
	}

	linkSeen := make(map[model.SceneCharacter]struct{}, len(snap.SceneCharacters))
	for _, l := range snap.SceneCharacters {
		if _, ok := ci.scenes[l.SceneID]; !ok {
			continue
		}
		if _, ok := ci.characters[l.CharacterID]; !ok {
			continue
		}
		if _, dup := linkSeen[l]; dup {
			continue
		}
		linkSeen[l] = struct{}{}
		ci.scenes[l.SceneID] = append(ci.scenes[l.SceneID], l.CharacterID)
	}
	for id, chars := range ci.scenes {
		sort.Slice(chars, func(i, j int) bool {
			a, b := ci.characters[chars[i]], ci.characters[chars[j]]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		ci.scenes[id] = chars
	}
	return ci
}

// SceneCharacters returns the characters appearing in a scene,
// ordered by name.
func (ci *CastIndex) SceneCharacters(sceneID string) []model.Character {
	ids := ci.scenes[sceneID]
	out := make([]model.Character, 0, len(ids))
	for _, id := range ids {
		out = append(out, ci.characters[id])
	}
	return out
}

// Cast returns the members cast in a character.  The slice is shared;
// callers must not modify it.
func (ci *CastIndex) Cast(characterID string) []string {
	return ci.cast[characterID]
}

// RequiredMembers is the union of the cast of every character in the
// scene, sorted.
func (ci *CastIndex) RequiredMembers(sceneID string) []string {
	set := make(map[string]struct{})
	for _, chID := range ci.scenes[sceneID] {
		for _, m := range ci.cast[chID] {
			set[m] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// MembersPlaying returns the members cast in any character with the
// given name.  Matching is exact.
func (ci *CastIndex) MembersPlaying(name string) []string {
	set := make(map[string]struct{})
	for _, chID := range ci.byName[name] {
		for _, m := range ci.cast[chID] {
			set[m] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// CharacterNames returns the names of the characters a member plays.
func (ci *CastIndex) CharacterNames(memberID string) []string {
	return ci.roles[memberID]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
