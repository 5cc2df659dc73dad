// Package idle decides which group members count as idle. Everything here is
// a pure function of its inputs: no clock reads, no I/O.
package idle

import (
	"cmp"
	"slices"
	"time"
)

// Day is the unit of the idle threshold.
const Day = 24 * time.Hour

// Candidate is a member eligible for removal.
type Candidate struct {
	UserID   string
	LastSeen time.Time
	// Seen is false when the member has never been observed speaking.
	Seen    bool
	IdleFor time.Duration
	// DaysSinceActive is whole days idle, or -1 for never seen.
	DaysSinceActive int
}

// Compute returns the idle members, most idle first.
//
// A member is idle when it is not protected and either has no recorded
// activity or was last seen at least thresholdDays before now. Members that
// were never seen sort ahead of everyone else; the rest sort by idle
// duration descending, and equal durations by UserID ascending.
//
// lastSeen entries for users outside members are ignored. Duplicate members
// are reported once.
func Compute(lastSeen map[string]time.Time, now time.Time, thresholdDays int, protected map[string]struct{}, members []string) []Candidate {
	threshold := time.Duration(thresholdDays) * Day

	out := make([]Candidate, 0)
	seen := make(map[string]struct{}, len(members))
	for _, id := range members {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := protected[id]; ok {
			continue
		}

		ts, ok := lastSeen[id]
		if !ok {
			out = append(out, Candidate{UserID: id, DaysSinceActive: -1})
			continue
		}

		idleFor := now.Sub(ts)
		if idleFor < threshold {
			continue
		}
		out = append(out, Candidate{
			UserID:          id,
			LastSeen:        ts,
			Seen:            true,
			IdleFor:         idleFor,
			DaysSinceActive: int(idleFor / Day),
		})
	}

	slices.SortFunc(out, compareCandidates)
	return out
}

func compareCandidates(a, b Candidate) int {
	if a.Seen != b.Seen {
		if !a.Seen {
			return -1
		}
		return 1
	}
	if a.IdleFor != b.IdleFor {
		return cmp.Compare(b.IdleFor, a.IdleFor)
	}
	return cmp.Compare(a.UserID, b.UserID)
}

// UserIDs returns the IDs of candidates in order.
func UserIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}
	return ids
}
