package moderation

import (
	"fmt"
	"strings"

	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/idle"
)

const (
	DefaultPreviewLimit = constants.DefaultPreviewLimit
	lastSeenLayout      = "2006-01-02 15:04"
)

// Preview renders the idle list for the chat. It only reads its input.
// At most limit candidates are listed; limit <= 0 means DefaultPreviewLimit.
func Preview(candidates []idle.Candidate, thresholdDays, limit int, dryRun bool) string {
	if len(candidates) == 0 {
		return fmt.Sprintf("✅ No idle users found (threshold: %d days)", thresholdDays)
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Found %d idle users (>=%d days):\n\n", len(candidates), thresholdDays)

	for i, c := range candidates {
		if i == limit {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.UserID)
		if c.Seen {
			fmt.Fprintf(&sb, "   Last seen: %s\n", c.LastSeen.Format(lastSeenLayout))
			fmt.Fprintf(&sb, "   Days idle: %d\n\n", c.DaysSinceActive)
		} else {
			sb.WriteString("   Last seen: never\n\n")
		}
	}

	if len(candidates) > limit {
		fmt.Fprintf(&sb, "... and %d more users\n", len(candidates)-limit)
	}

	sb.WriteString("\nUse `!remove-idle` to remove these users")
	if dryRun {
		sb.WriteString(" (dry-run mode enabled)")
	}
	return sb.String()
}

// Describe renders a candidate in one line.
func Describe(c idle.Candidate) string {
	if !c.Seen {
		return c.UserID + " (never seen)"
	}
	return fmt.Sprintf("%s (%d days idle)", c.UserID, c.DaysSinceActive)
}
