package idle

import (
	"time"
)

// Bucket is one band of the idle duration histogram.
type Bucket struct {
	Label string
	// Upper bound, exclusive. Zero means unbounded.
	Below time.Duration
	Count int
}

// Stats summarizes the ledger for the stats command.
type Stats struct {
	Total          int
	Active         int
	Idle           int
	ActiveLastWeek int
	Buckets        []Bucket
}

func newBuckets() []Bucket {
	return []Bucket{
		{Label: "<1d", Below: Day},
		{Label: "1-7d", Below: 7 * Day},
		{Label: "7-30d", Below: 30 * Day},
		{Label: "30-90d", Below: 90 * Day},
		{Label: ">=90d"},
	}
}

// Summarize counts tracked users by activity. Only users with a record are
// counted; the group roster is not consulted.
func Summarize(lastSeen map[string]time.Time, now time.Time, thresholdDays int) Stats {
	threshold := time.Duration(thresholdDays) * Day
	stats := Stats{
		Total:   len(lastSeen),
		Buckets: newBuckets(),
	}

	for _, ts := range lastSeen {
		idleFor := max(now.Sub(ts), 0)

		if idleFor >= threshold {
			stats.Idle++
		} else {
			stats.Active++
		}
		if idleFor < 7*Day {
			stats.ActiveLastWeek++
		}

		for i := range stats.Buckets {
			if stats.Buckets[i].Below == 0 || idleFor < stats.Buckets[i].Below {
				stats.Buckets[i].Count++
				break
			}
		}
	}

	return stats
}
