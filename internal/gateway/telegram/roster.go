package telegram

import (
	"slices"
	"sync"
)

// roster is the member list learned from updates. The Bot API cannot
// enumerate group members, so a member is known once they speak, join, or
// their membership changes.
type roster struct {
	mu     sync.RWMutex
	groups map[string]map[string]struct{}
}

func newRoster() *roster {
	return &roster{groups: make(map[string]map[string]struct{})}
}

func (r *roster) add(groupID string, userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[groupID]
	if !ok {
		members = make(map[string]struct{})
		r.groups[groupID] = members
	}
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
}

func (r *roster) remove(groupID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups[groupID], userID)
}

// members returns the known members sorted.
func (r *roster) members(groupID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.groups[groupID]))
	for id := range r.groups[groupID] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
