package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Command
		wantOK bool
	}{
		{name: "plain chat", text: "hello everyone", wantOK: false},
		{name: "empty", text: "", wantOK: false},
		{name: "bare prefix", text: "!", wantOK: false},
		{name: "space after prefix", text: "! idle", wantOK: false},
		{name: "prefix mid sentence", text: "so !idle works?", wantOK: false},
		{name: "invalid utf8 after prefix", text: "!\xff", wantOK: false},
		{name: "invalid utf8 only", text: "!\xff\xfe\x80", wantOK: false},
		{name: "invalid bytes dropped", text: "!id\xffle", want: Idle{}, wantOK: true},
		{name: "help", text: "!help", want: Help{}, wantOK: true},
		{name: "stats", text: "!stats", want: Stats{}, wantOK: true},
		{name: "idle", text: "!id\u200ble", want: Idle{}, wantOK: true},
		{name: "idle ignores extra args", text: "!idle now please", want: Idle{}, wantOK: true},
		{name: "surrounding whitespace", text: "  !idle \n", want: Idle{}, wantOK: true},
		{name: "upper case", text: "!IDLE", want: Idle{}, wantOK: true},
		{name: "full width", text: "！ｉｄｌｅ", want: Idle{}, wantOK: true},
		{name: "zero width joiner", text: "!id\u200ble", want: Idle{}, wantOK: true},
		{name: "remove idle", text: "!remove-idle", want: RemoveIdle{}, wantOK: true},
		{name: "config show", text: "!config", want: ConfigShow{}, wantOK: true},
		{name: "threshold", text: "!config threshold 45", want: ConfigSetThreshold{Days: 45}, wantOK: true},
		{name: "negative threshold parses", text: "!config threshold -5", want: ConfigSetThreshold{Days: -5}, wantOK: true},
		{name: "multiple spaces", text: "!config   threshold\t7", want: ConfigSetThreshold{Days: 7}, wantOK: true},
		{name: "dry run true", text: "!config dry_run true", want: ConfigSetDryRun{Value: true}, wantOK: true},
		{name: "dry run on", text: "!config dry_run ON", want: ConfigSetDryRun{Value: true}, wantOK: true},
		{name: "dry run 1", text: "!config dry_run 1", want: ConfigSetDryRun{Value: true}, wantOK: true},
		{name: "dry run false", text: "!config dry_run false", want: ConfigSetDryRun{Value: false}, wantOK: true},
		{name: "dry run off", text: "!config dry_run off", want: ConfigSetDryRun{Value: false}, wantOK: true},
		{name: "dry run no", text: "!config dry_run no", want: ConfigSetDryRun{Value: false}, wantOK: true},
		{name: "unknown", text: "!kick bob", want: Unknown{Word: "kick"}, wantOK: true},
		{name: "prefix of command is unknown", text: "!idler", want: Unknown{Word: "idler"}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, "!")
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		problem string
		usage   string
	}{
		{
			name:    "threshold not a number",
			text:    "!config threshold abc",
			problem: `Invalid number for threshold: "abc"`,
			usage:   "!config threshold <days>",
		},
		{
			name:    "threshold missing value",
			text:    "!config threshold",
			problem: "threshold needs exactly one value",
			usage:   "!config threshold <days>",
		},
		{
			name:    "threshold float",
			text:    "!config threshold 1.5",
			problem: `Invalid number for threshold: "1.5"`,
			usage:   "!config threshold <days>",
		},
		{
			name:    "dry run not a bool",
			text:    "!config dry_run maybe",
			problem: `Use 'true' or 'false' for dry_run, got "maybe"`,
			usage:   "!config dry_run <true|false>",
		},
		{
			name:    "dry run extra args",
			text:    "!config dry_run true false",
			problem: "dry_run needs exactly one value",
			usage:   "!config dry_run <true|false>",
		},
		{
			name:    "unknown setting",
			text:    "!config admins +1",
			problem: `Unknown setting "admins". Available: threshold, dry_run`,
			usage:   "!config [threshold <days> | dry_run <true|false>]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, "!")
			require.True(t, ok)
			inv, isInvalid := got.(Invalid)
			require.True(t, isInvalid, "got %#v", got)
			assert.Equal(t, tt.problem, inv.Problem)
			assert.Equal(t, tt.usage, inv.Usage)
			assert.Equal(t, "config", inv.Name())
		})
	}
}

func TestParse_CustomPrefix(t *testing.T) {
	got, ok := Parse("/stats", "/")
	require.True(t, ok)
	assert.Equal(t, Stats{}, got)

	_, ok = Parse("!stats", "/")
	assert.False(t, ok)

	got, ok = Parse("!stats", "")
	require.True(t, ok)
	assert.Equal(t, Stats{}, got)

	got, ok = Parse("/config threshold x", "/")
	require.True(t, ok)
	assert.Equal(t, "/config threshold <days>", got.(Invalid).Usage)
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, "help", Help{}.Name())
	assert.Equal(t, "remove-idle", RemoveIdle{}.Name())
	assert.Equal(t, "config threshold", ConfigSetThreshold{Days: 3}.Name())
	assert.Equal(t, "config dry_run", ConfigSetDryRun{}.Name())
	assert.Equal(t, "unknown", Unknown{Word: "x"}.Name())
}

func TestHelpText(t *testing.T) {
	admin := HelpText("!", true)
	assert.Contains(t, admin, "Admin Commands")
	assert.Contains(t, admin, "`!remove-idle`")
	assert.Contains(t, admin, "`!config threshold <days>`")
	assert.Contains(t, admin, "`!idle`")
	assert.NotContains(t, admin, "require admin privileges")

	member := HelpText("!", false)
	assert.NotContains(t, member, "Admin Commands")
	assert.NotContains(t, member, "remove-idle")
	assert.Contains(t, member, "`!help`")
	assert.Contains(t, member, "`!stats`")
	assert.Contains(t, member, "require admin privileges")
}
