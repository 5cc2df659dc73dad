package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"

	"github.com/aatumaykin/idlebot/internal/constants"
)

var (
	tokenPattern     = re2.MustCompile(`\S+`)
	invisiblePattern = re2.MustCompile(`[\x{200B}-\x{200D}\x{2060}\x{FEFF}\x{00AD}]`)
)

// Usage lines, without prefix.
const (
	usageThreshold = "config threshold <days>"
	usageDryRun    = "config dry_run <true|false>"
	usageConfig    = "config [threshold <days> | dry_run <true|false>]"
)

// Parse reads text as a command. ok is false when text does not start with
// prefix and so is ordinary chat. The command word is case-insensitive;
// full-width and other compatibility forms are folded first, so "！IDLE"
// parses like "!idle".
func Parse(text, prefix string) (cmd Command, ok bool) {
	if prefix == "" {
		prefix = constants.DefaultCommandPrefix
	}

	text = normalize(text)
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}

	rest := text[len(prefix):]
	if rest == "" || strings.TrimLeftFunc(rest, unicode.IsSpace) != rest {
		return nil, false
	}
	tokens := tokenPattern.FindAllString(rest, -1)
	if len(tokens) == 0 {
		return nil, false
	}

	word := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch word {
	case constants.CommandHelp:
		return Help{}, true
	case constants.CommandStats:
		return Stats{}, true
	case constants.CommandIdle:
		return Idle{}, true
	case constants.CommandRemoveIdle:
		return RemoveIdle{}, true
	case constants.CommandConfig:
		return parseConfig(args, prefix), true
	default:
		return Unknown{Word: tokens[0]}, true
	}
}

func parseConfig(args []string, prefix string) Command {
	if len(args) == 0 {
		return ConfigShow{}
	}

	setting := strings.ToLower(args[0])
	switch setting {
	case constants.ConfigSettingThreshold:
		if len(args) != 2 {
			return invalid("threshold needs exactly one value", prefix+usageThreshold)
		}
		days, err := strconv.Atoi(args[1])
		if err != nil {
			return invalid(fmt.Sprintf("Invalid number for threshold: %q", args[1]), prefix+usageThreshold)
		}
		return ConfigSetThreshold{Days: days}

	case constants.ConfigSettingDryRun:
		if len(args) != 2 {
			return invalid("dry_run needs exactly one value", prefix+usageDryRun)
		}
		value, ok := parseSwitch(args[1])
		if !ok {
			return invalid(fmt.Sprintf("Use 'true' or 'false' for dry_run, got %q", args[1]), prefix+usageDryRun)
		}
		return ConfigSetDryRun{Value: value}

	default:
		return invalid(fmt.Sprintf("Unknown setting %q. Available: threshold, dry_run", args[0]), prefix+usageConfig)
	}
}

func invalid(problem, usage string) Invalid {
	return Invalid{Command: constants.CommandConfig, Problem: problem, Usage: usage}
}

// parseSwitch accepts the on/off spellings admins tend to type.
func parseSwitch(s string) (value, ok bool) {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true, true
	case "false", "off", "0", "no":
		return false, true
	}
	return false, false
}

func normalize(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = norm.NFKC.String(s)
	s = invisiblePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
