package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearOverrides hides override variables from the host environment.
func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvPhoneNumber, EnvSignalService, EnvIdleThreshold, EnvDryRun, EnvTelegramToken} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTOML = `
[bot]
group_id = "group.abc"
idle_threshold_days = 45
admin_ids = ["+1111111111"]
protected_ids = ["+1234567890"]

[gateway.signal]
number = "+15550000000"

[schedule]
idle_report = "0 9 * * 1"
`

func TestLoad_TOML(t *testing.T) {
	clearOverrides(t)
	cfg, err := Load(writeFile(t, "config.toml", sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "group.abc", cfg.Bot.GroupID)
	assert.Equal(t, 45, cfg.Bot.IdleThresholdDays)
	assert.True(t, cfg.Bot.IsDryRun(), "dry run defaults to on")
	assert.Equal(t, []string{"+1111111111"}, cfg.Bot.AdminIDs)
	assert.Equal(t, "+15550000000", cfg.Gateway.Signal.Number)
	assert.Equal(t, "0 9 * * 1", cfg.Schedule.IdleReport)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearOverrides(t)
	content := `
bot:
  group_id: "-100123"
  dry_run: false
  admin_ids: ["42"]
storage:
  driver: sqlite
gateway:
  driver: telegram
  telegram:
    token: "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ"
logging:
  format: text
`
	for _, name := range []string{"config.yaml", "config.YML"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, content))
			require.NoError(t, err)

			assert.False(t, cfg.Bot.IsDryRun())
			assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
			assert.Equal(t, "data/activity.db", cfg.Storage.Path)
			assert.Equal(t, GatewayTelegram, cfg.Gateway.Driver)
			assert.Equal(t, "text", cfg.Logging.Format)
			assert.Empty(t, cfg.Validate())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	clearOverrides(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.toml", "[bot\ngroup_id ="))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeFile(t, "bad.yaml", "bot: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Parse([]byte(""), "ini")
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestConfigDefaults(t *testing.T) {
	clearOverrides(t)
	cfg, err := Parse([]byte(""), "toml")
	require.NoError(t, err)

	tests := []struct {
		name string
		want any
		got  any
	}{
		{"idle threshold", 30, cfg.Bot.IdleThresholdDays},
		{"dry run", true, cfg.Bot.IsDryRun()},
		{"command prefix", "!", cfg.Bot.CommandPrefix},
		{"preview limit", 10, cfg.Bot.PreviewLimit},
		{"removal timeout", 15, cfg.Bot.RemovalTimeoutSeconds},
		{"removal concurrency", 1, cfg.Bot.RemovalConcurrency},
		{"storage driver", StorageFile, cfg.Storage.Driver},
		{"storage path", "data/user_activity.json", cfg.Storage.Path},
		{"gateway driver", GatewaySignal, cfg.Gateway.Driver},
		{"signal service", "127.0.0.1:8080", cfg.Gateway.Signal.Service},
		{"signal poll interval", 2, cfg.Gateway.Signal.PollIntervalSeconds},
		{"signal timeout", 30, cfg.Gateway.Signal.TimeoutSeconds},
		{"logging level", "info", cfg.Logging.Level},
		{"logging format", "json", cfg.Logging.Format},
		{"logging output", "stdout", cfg.Logging.Output},
		{"bus capacity", 100, cfg.MessageBus.Capacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRedisDefaults(t *testing.T) {
	clearOverrides(t)
	cfg, err := Parse([]byte("[storage]\ndriver = \"redis\"\n"), "toml")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "idlebot:activity", cfg.Storage.RedisKey)
	assert.Empty(t, cfg.Storage.Path)
}

func TestEnvExpansion(t *testing.T) {
	clearOverrides(t)
	t.Setenv("IDLEBOT_GROUP", "group.fromenv")
	t.Setenv("IDLEBOT_ADMIN", "+1999")

	content := `
[bot]
group_id = "${IDLEBOT_GROUP}"
admin_ids = ["${IDLEBOT_ADMIN}", "${IDLEBOT_MISSING:+1000}"]

[gateway.signal]
number = "${IDLEBOT_NUMBER:+15550000000}"
`
	cfg, err := Parse([]byte(content), "toml")
	require.NoError(t, err)

	assert.Equal(t, "group.fromenv", cfg.Bot.GroupID)
	assert.Equal(t, []string{"+1999", "+1000"}, cfg.Bot.AdminIDs)
	assert.Equal(t, "+15550000000", cfg.Gateway.Signal.Number)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data/a.json"), expandHome("~/data/a.json"))
	assert.Equal(t, "/abs/a.json", expandHome("/abs/a.json"))
}

func TestEnvOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvPhoneNumber, "+17770000000")
	t.Setenv(EnvSignalService, "signal:8080")
	t.Setenv(EnvIdleThreshold, "60")
	t.Setenv(EnvDryRun, "false")
	t.Setenv(EnvTelegramToken, "123456789:fromenvtoken123")

	cfg, err := Parse([]byte(sampleTOML+"\n"), "toml")
	require.NoError(t, err)

	assert.Equal(t, "+17770000000", cfg.Gateway.Signal.Number)
	assert.Equal(t, "signal:8080", cfg.Gateway.Signal.Service)
	assert.Equal(t, 60, cfg.Bot.IdleThresholdDays)
	assert.False(t, cfg.Bot.IsDryRun())
	assert.Equal(t, "123456789:fromenvtoken123", cfg.Gateway.Telegram.Token)
}

func TestEnvOverrides_Invalid(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvIdleThreshold, "soon")
	_, err := Parse([]byte(sampleTOML), "toml")
	assert.ErrorContains(t, err, EnvIdleThreshold)

	clearOverrides(t)
	t.Setenv(EnvDryRun, "maybe")
	_, err = Parse([]byte(sampleTOML), "toml")
	assert.ErrorContains(t, err, EnvDryRun)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	clearOverrides(t)
	cfg, err := Parse([]byte(sampleTOML), "toml")
	require.NoError(t, err)
	require.Empty(t, cfg.Validate())
	return cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing group", func(c *Config) { c.Bot.GroupID = "" }, "bot.group_id is required"},
		{"negative threshold", func(c *Config) { c.Bot.IdleThresholdDays = -5 }, "bot.idle_threshold_days"},
		{"prefix with space", func(c *Config) { c.Bot.CommandPrefix = "! " }, "bot.command_prefix"},
		{"zero preview", func(c *Config) { c.Bot.PreviewLimit = 0 }, "bot.preview_limit"},
		{"zero concurrency", func(c *Config) { c.Bot.RemovalConcurrency = 0 }, "bot.removal_concurrency"},
		{"empty admin", func(c *Config) { c.Bot.AdminIDs = []string{" "} }, "bot.admin_ids"},
		{"empty protected", func(c *Config) { c.Bot.ProtectedIDs = []string{""} }, "bot.protected_ids"},
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "mongo" }, "invalid storage.driver"},
		{"path traversal", func(c *Config) { c.Storage.Path = "../../etc/passwd" }, "path traversal"},
		{"redis without addr", func(c *Config) { c.Storage.Driver = StorageRedis }, "storage.redis_addr"},
		{"bad gateway", func(c *Config) { c.Gateway.Driver = "matrix" }, "invalid gateway.driver"},
		{"signal without number", func(c *Config) { c.Gateway.Signal.Number = "" }, "gateway.signal.number"},
		{"telegram without token", func(c *Config) { c.Gateway.Driver = GatewayTelegram }, "gateway.telegram.token is required"},
		{"bad cron", func(c *Config) { c.Schedule.IdleReport = "every monday" }, "schedule.idle_report"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Base" }, "schedule.timezone"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging.format"},
		{"zero capacity", func(c *Config) { c.MessageBus.Capacity = 0 }, "message_bus.capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			assert.Contains(t, joinErrors(errs), tt.want)
		})
	}
}

func TestConfigValidation_ReportsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Bot.GroupID = ""
	cfg.Bot.IdleThresholdDays = 0
	cfg.Logging.Level = "loud"

	assert.Len(t, cfg.Validate(), 3)
}

func TestValidateTelegramToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ", false},
		{"no colon", "123456789ABCdefGHIjkl", true},
		{"short bot id", "12:ABCdefGHIjklMNOpqr", true},
		{"letters in bot id", "12a456789:ABCdefGHIjklMNOpqr", true},
		{"short secret", "123456789:abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTelegramToken(tt.token)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, "gateway.telegram.token", vErr.Field)
			assert.NotContains(t, err.Error(), "ABCdefGHIjklMNOpqr")
		})
	}
}

func TestTelegramGroupIDMustBeNumeric(t *testing.T) {
	cfg := validConfig(t)
	cfg.Gateway.Driver = GatewayTelegram
	cfg.Gateway.Telegram.Token = "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ"

	assert.Contains(t, joinErrors(cfg.Validate()), "numeric chat id")

	cfg.Bot.GroupID = "-100123"
	assert.Empty(t, cfg.Validate())
}

func TestSettings(t *testing.T) {
	cfg := validConfig(t)
	s := cfg.Settings()

	assert.Equal(t, 45, s.IdleThresholdDays)
	assert.True(t, s.DryRun)
	assert.Equal(t, []string{"+1111111111"}, s.AdminIDs)
	assert.Equal(t, []string{"+1234567890"}, s.ProtectedIDs)

	s.AdminIDs[0] = "changed"
	assert.Equal(t, "+1111111111", cfg.Bot.AdminIDs[0])
}

func TestDurations(t *testing.T) {
	cfg := validConfig(t)
	assert.Equal(t, "15s", cfg.Bot.RemovalTimeout().String())
	assert.Equal(t, "2s", cfg.Gateway.Signal.PollInterval().String())
	assert.Equal(t, "30s", cfg.Gateway.Signal.Timeout().String())
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "\n")
}
