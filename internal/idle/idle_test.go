package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return epoch.Add(time.Duration(n) * Day)
}

func set(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestCompute_ThirtyDayScenario(t *testing.T) {
	lastSeen := map[string]time.Time{
		"A": day(0),
		"B": day(40),
	}

	got := Compute(lastSeen, day(45), 30, set(), []string{"A", "B", "C"})

	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].UserID)
	assert.False(t, got[0].Seen)
	assert.Equal(t, -1, got[0].DaysSinceActive)

	assert.Equal(t, "A", got[1].UserID)
	assert.True(t, got[1].Seen)
	assert.Equal(t, 45, got[1].DaysSinceActive)
	assert.Equal(t, 45*Day, got[1].IdleFor)
	// B was active five days ago
	assert.NotContains(t, UserIDs(got), "B")
}

func TestCompute_NeverSeenAlwaysIdle(t *testing.T) {
	for _, threshold := range []int{1, 30, 365, 100000} {
		got := Compute(map[string]time.Time{}, day(0), threshold, set(), []string{"silent"})
		require.Len(t, got, 1, "threshold %d", threshold)
		assert.Equal(t, "silent", got[0].UserID)
		assert.False(t, got[0].Seen)
	}
}

func TestCompute_ProtectedNeverIdle(t *testing.T) {
	lastSeen := map[string]time.Time{"old": day(-1000)}

	got := Compute(lastSeen, day(0), 1, set("old", "ghost"), []string{"old", "ghost", "other"})

	assert.Equal(t, []string{"other"}, UserIDs(got))
}

func TestCompute_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name     string
		lastSeen time.Time
		want     bool
	}{
		{"exactly threshold", day(0), true},
		{"one second short", day(0).Add(time.Second), false},
		{"past threshold", day(-1), true},
		{"future timestamp", day(31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(map[string]time.Time{"u": tt.lastSeen}, day(30), 30, nil, []string{"u"})
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestCompute_Ordering(t *testing.T) {
	lastSeen := map[string]time.Time{
		"d": day(0),
		"b": day(5),
		"a": day(5),
		"c": day(-10),
	}
	members := []string{"d", "b", "zz", "a", "c", "mm"}

	got := Compute(lastSeen, day(100), 30, nil, members)

	assert.Equal(t, []string{"mm", "zz", "c", "d", "a", "b"}, UserIDs(got))
	for i := 1; i < len(got); i++ {
		if got[i-1].Seen && got[i].Seen {
			assert.GreaterOrEqual(t, got[i-1].IdleFor, got[i].IdleFor)
		}
	}
}

func TestCompute_IgnoresNonMembersAndDuplicates(t *testing.T) {
	lastSeen := map[string]time.Time{
		"left": day(0),
		"a":    day(0),
	}

	got := Compute(lastSeen, day(60), 30, nil, []string{"a", "a"})

	assert.Equal(t, []string{"a"}, UserIDs(got))
}

func TestCompute_EmptyMembers(t *testing.T) {
	got := Compute(map[string]time.Time{"a": day(0)}, day(60), 30, nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSummarize(t *testing.T) {
	lastSeen := map[string]time.Time{
		"today":   day(100),
		"3days":   day(97),
		"10days":  day(90),
		"45days":  day(55),
		"200days": day(-100),
	}

	stats := Summarize(lastSeen, day(100).Add(time.Hour), 30)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, 2, stats.Idle)
	assert.Equal(t, 2, stats.ActiveLastWeek)

	counts := map[string]int{}
	for _, b := range stats.Buckets {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{
		"<1d":    1,
		"1-7d":   1,
		"7-30d":  1,
		"30-90d": 1,
		">=90d":  1,
	}, counts)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil, day(0), 30)
	assert.Zero(t, stats.Total)
	assert.Len(t, stats.Buckets, 5)
}
