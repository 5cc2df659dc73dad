// Package commands defines the chat command grammar of the bot. A message
// is parsed once into a Command value; authorization and dispatch switch on
// its concrete type instead of re-reading the text.
package commands

import (
	"github.com/aatumaykin/idlebot/internal/constants"
)

// Command is one parsed chat command. The set of implementations is closed.
type Command interface {
	// Name is the command word without prefix, used in logs and metrics.
	Name() string
	isCommand()
}

// Help lists commands.
type Help struct{}

// Stats summarizes activity.
type Stats struct{}

// Idle previews idle members.
type Idle struct{}

// RemoveIdle removes idle members, honouring dry-run.
type RemoveIdle struct{}

// ConfigShow prints the current settings.
type ConfigShow struct{}

// ConfigSetThreshold changes the idle threshold. Days is whatever integer
// was typed; range checking happens when it is applied.
type ConfigSetThreshold struct {
	Days int
}

// ConfigSetDryRun switches dry-run mode.
type ConfigSetDryRun struct {
	Value bool
}

// Unknown is a prefixed word that is not a command.
type Unknown struct {
	Word string
}

// Invalid is a known command with malformed arguments.
type Invalid struct {
	Command string
	Problem string
	Usage   string
}

func (Help) Name() string               { return constants.CommandHelp }
func (Stats) Name() string              { return constants.CommandStats }
func (Idle) Name() string               { return constants.CommandIdle }
func (RemoveIdle) Name() string         { return constants.CommandRemoveIdle }
func (ConfigShow) Name() string         { return constants.CommandConfig }
func (ConfigSetThreshold) Name() string { return constants.CommandConfig + " " + constants.ConfigSettingThreshold }
func (ConfigSetDryRun) Name() string    { return constants.CommandConfig + " " + constants.ConfigSettingDryRun }
func (Unknown) Name() string            { return "unknown" }
func (c Invalid) Name() string          { return c.Command }

func (Help) isCommand()               {}
func (Stats) isCommand()              {}
func (Idle) isCommand()               {}
func (RemoveIdle) isCommand()         {}
func (ConfigShow) isCommand()         {}
func (ConfigSetThreshold) isCommand() {}
func (ConfigSetDryRun) isCommand()    {}
func (Unknown) isCommand()            {}
func (Invalid) isCommand()            {}
