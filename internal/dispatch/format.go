package dispatch

import (
	"fmt"
	"strings"

	"github.com/aatumaykin/idlebot/internal/idle"
	"github.com/aatumaykin/idlebot/internal/policy"
)

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

func formatStats(st idle.Stats, settings policy.Settings) string {
	var sb strings.Builder
	sb.WriteString("📊 Group Activity Statistics\n\n")
	fmt.Fprintf(&sb, "👥 Total tracked users: %d\n", st.Total)
	fmt.Fprintf(&sb, "✅ Active users: %d\n", st.Active)
	fmt.Fprintf(&sb, "💤 Idle users: %d\n", st.Idle)
	fmt.Fprintf(&sb, "🔥 Active last 7 days: %d\n\n", st.ActiveLastWeek)

	sb.WriteString("⏱ Last seen:\n")
	for _, b := range st.Buckets {
		fmt.Fprintf(&sb, "• %s: %d\n", b.Label, b.Count)
	}

	sb.WriteString("\n⚙️ Current settings:\n")
	fmt.Fprintf(&sb, "• Idle threshold: %d days\n", settings.IdleThresholdDays)
	fmt.Fprintf(&sb, "• Protected users: %d\n", len(settings.ProtectedIDs))
	fmt.Fprintf(&sb, "• Dry run mode: %s", onOff(settings.DryRun))
	return sb.String()
}

func formatConfig(settings policy.Settings, prefix string) string {
	var sb strings.Builder
	sb.WriteString("⚙️ Current Configuration:\n\n")
	fmt.Fprintf(&sb, "• Idle threshold: %d days\n", settings.IdleThresholdDays)
	fmt.Fprintf(&sb, "• Dry run mode: %s\n", onOff(settings.DryRun))
	fmt.Fprintf(&sb, "• Protected users: %d\n", len(settings.ProtectedIDs))
	fmt.Fprintf(&sb, "• Admin numbers: %d\n\n", len(settings.AdminIDs))
	fmt.Fprintf(&sb, "Use `%sconfig <setting> <value>` to update settings", prefix)
	return sb.String()
}
