package commands

import (
	"fmt"
	"strings"
)

// HelpText lists the commands. Admin commands are shown to admins only.
func HelpText(prefix string, admin bool) string {
	var sb strings.Builder
	sb.WriteString("🤖 Idle User Bot - Commands:\n\n")

	if admin {
		sb.WriteString("👑 Admin Commands:\n")
		fmt.Fprintf(&sb, "• `%sremove-idle` - Remove idle users (simulated while dry run is on)\n", prefix)
		fmt.Fprintf(&sb, "• `%sconfig threshold <days>` - Set idle threshold\n", prefix)
		fmt.Fprintf(&sb, "• `%sconfig dry_run <true/false>` - Toggle dry run mode\n\n", prefix)
	}

	sb.WriteString("ℹ️ General Commands:\n")
	fmt.Fprintf(&sb, "• `%shelp` - Show this help message\n", prefix)
	fmt.Fprintf(&sb, "• `%sstats` - Show activity statistics\n", prefix)
	fmt.Fprintf(&sb, "• `%sidle` - Check for idle users\n", prefix)
	fmt.Fprintf(&sb, "• `%sconfig` - Show current configuration\n", prefix)

	if !admin {
		sb.WriteString("\nNote: removing users and changing settings require admin privileges.")
	}

	return strings.TrimRight(sb.String(), "\n")
}
