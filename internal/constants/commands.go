package constants

// DefaultCommandPrefix marks a chat message as a bot command.
const DefaultCommandPrefix = "!"

// CommandHelp lists the available commands.
const CommandHelp = "help"

// CommandStats summarizes the activity ledger.
const CommandStats = "stats"

// CommandIdle previews idle members.
const CommandIdle = "idle"

// CommandRemoveIdle removes idle members (or simulates it in dry-run mode).
const CommandRemoveIdle = "remove-idle"

// CommandConfig shows or changes runtime settings.
const CommandConfig = "config"

// ConfigSettingThreshold is the `config` setting for the idle threshold.
const ConfigSettingThreshold = "threshold"

// ConfigSettingDryRun is the `config` setting for the dry-run switch.
const ConfigSettingDryRun = "dry_run"
