package constants

// Chat replies
const (
	// MsgNotAdmin is the reply to a non-admin invoking an admin command.
	MsgNotAdmin = "❌ Only admins can use this command."

	// MsgUnknownCommand is the reply to an unrecognized command.
	MsgUnknownCommand = "❓ Unknown command `%s%s`. Send `%shelp` for the list of commands."

	// MsgInternalError is the reply when handling a command failed unexpectedly.
	MsgInternalError = "⚠️ Something went wrong while handling that command. Please try again."

	// MsgMembersError is the reply when the group roster cannot be fetched.
	MsgMembersError = "⚠️ Could not fetch the group member list: %v"

	// MsgPersistWarning is appended when the activity ledger could not be saved.
	MsgPersistWarning = "\n\n⚠️ Warning: activity data could not be saved (%v)"

	// MsgNoActivity is the stats reply when nothing has been tracked yet.
	MsgNoActivity = "📊 No activity data available yet."

	// MsgThresholdSet confirms a new idle threshold.
	MsgThresholdSet = "✅ Idle threshold set to %d days"

	// MsgThresholdInvalid rejects a non-positive threshold.
	MsgThresholdInvalid = "❌ Idle threshold must be a positive number of days, got %d"

	// MsgDryRunEnabled confirms dry-run was switched on.
	MsgDryRunEnabled = "✅ Dry run mode enabled"

	// MsgDryRunDisabled confirms dry-run was switched off.
	MsgDryRunDisabled = "✅ Dry run mode disabled. `!remove-idle` will now remove members."

	// MsgInvalidUsage is the reply to a malformed command.
	MsgInvalidUsage = "❌ %s\nUsage: %s"
)

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration loaded"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)

// Ledger messages
const (
	// MsgLedgerEmpty is printed when the ledger holds no records.
	MsgLedgerEmpty = "No activity recorded."

	// MsgLedgerTotal is the footer of the ledger listing.
	MsgLedgerTotal = "Total: %d user(s)\n"

	// MsgLedgerImported reports a finished import.
	MsgLedgerImported = "✅ Imported %d record(s) from %s\n"
)
