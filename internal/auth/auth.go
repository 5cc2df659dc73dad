// Package auth decides who may run which chat command.
package auth

import (
	"slices"

	"github.com/aatumaykin/idlebot/internal/commands"
	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/policy"
)

// ReasonNotAdmin is the denial reason for admin-only commands.
const ReasonNotAdmin = "admin privileges required"

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// IsAdmin reports whether userID is in admins. Match is exact, identifiers
// are expected in the same format as configured.
func IsAdmin(userID string, admins []string) bool {
	if userID == "" {
		return false
	}
	return slices.Contains(admins, userID)
}

// RequiresAdmin reports whether cmd changes group or bot state. A malformed
// config change is still a config change: non-admins get the denial, not
// the usage hint.
func RequiresAdmin(cmd commands.Command) bool {
	switch c := cmd.(type) {
	case commands.RemoveIdle, commands.ConfigSetThreshold, commands.ConfigSetDryRun:
		return true
	case commands.Invalid:
		return c.Command == constants.CommandConfig
	default:
		return false
	}
}

// Authorize checks senderID against the admin list of settings.
func Authorize(cmd commands.Command, senderID string, settings policy.Settings) Decision {
	if !RequiresAdmin(cmd) {
		return Decision{Allowed: true}
	}
	if IsAdmin(senderID, settings.AdminIDs) {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Reason: ReasonNotAdmin}
}
