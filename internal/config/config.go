package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/idlebot/internal/constants"
)

// Environment overrides, applied after the file is loaded.
const (
	EnvPhoneNumber   = "BOT_PHONE_NUMBER"
	EnvSignalService = "SIGNAL_SERVICE"
	EnvIdleThreshold = "IDLE_THRESHOLD_DAYS"
	EnvDryRun        = "DRY_RUN"
	EnvTelegramToken = "TELEGRAM_TOKEN"
)

const defaultRedisAddr = "127.0.0.1:6379"

// Load reads a TOML or YAML config file; the format follows the extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml" or "yaml") and applies
// environment expansion, overrides and defaults.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (expected: toml, yaml)", format)
	}

	expandEnvVars(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// applyDefaults fills in unset values.
func applyDefaults(c *Config) {
	if c.Bot.IdleThresholdDays == 0 {
		c.Bot.IdleThresholdDays = constants.DefaultIdleThresholdDays
	}
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = constants.DefaultCommandPrefix
	}
	if c.Bot.PreviewLimit == 0 {
		c.Bot.PreviewLimit = constants.DefaultPreviewLimit
	}
	if c.Bot.RemovalTimeoutSeconds == 0 {
		c.Bot.RemovalTimeoutSeconds = int(constants.DefaultRemovalTimeout.Seconds())
	}
	if c.Bot.RemovalConcurrency == 0 {
		c.Bot.RemovalConcurrency = constants.DefaultRemovalConcurrency
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case StorageFile:
			c.Storage.Path = constants.DefaultActivityFile
		case StorageSQLite:
			c.Storage.Path = constants.DefaultActivityDB
		}
	}
	if c.Storage.Driver == StorageRedis {
		if c.Storage.RedisAddr == "" {
			c.Storage.RedisAddr = defaultRedisAddr
		}
		if c.Storage.RedisKey == "" {
			c.Storage.RedisKey = constants.DefaultRedisKey
		}
	}

	if c.Gateway.Driver == "" {
		c.Gateway.Driver = GatewaySignal
	}
	if c.Gateway.Signal.Service == "" {
		c.Gateway.Signal.Service = constants.DefaultSignalService
	}
	if c.Gateway.Signal.PollIntervalSeconds == 0 {
		c.Gateway.Signal.PollIntervalSeconds = int(constants.DefaultSignalPollInterval.Seconds())
	}
	if c.Gateway.Signal.TimeoutSeconds == 0 {
		c.Gateway.Signal.TimeoutSeconds = int(constants.DefaultSignalTimeout.Seconds())
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.MessageBus.Capacity == 0 {
		c.MessageBus.Capacity = constants.DefaultBusCapacity
	}
}

// expandEnvVars expands environment references in string fields.
func expandEnvVars(c *Config) {
	c.Bot.GroupID = expandEnv(c.Bot.GroupID)
	for i, id := range c.Bot.AdminIDs {
		c.Bot.AdminIDs[i] = expandEnv(id)
	}
	for i, id := range c.Bot.ProtectedIDs {
		c.Bot.ProtectedIDs[i] = expandEnv(id)
	}

	c.Storage.Path = expandHome(expandEnv(c.Storage.Path))
	c.Storage.RedisAddr = expandEnv(c.Storage.RedisAddr)
	c.Storage.RedisPassword = expandEnv(c.Storage.RedisPassword)

	c.Gateway.Signal.Service = expandEnv(c.Gateway.Signal.Service)
	c.Gateway.Signal.Number = expandEnv(c.Gateway.Signal.Number)
	c.Gateway.Telegram.Token = expandEnv(c.Gateway.Telegram.Token)

	c.Metrics.Listen = expandEnv(c.Metrics.Listen)
	c.Logging.Output = expandEnv(c.Logging.Output)
}

// applyEnvOverrides lets deployment environment win over the file.
func applyEnvOverrides(c *Config) error {
	if v := os.Getenv(EnvPhoneNumber); v != "" {
		c.Gateway.Signal.Number = v
	}
	if v := os.Getenv(EnvSignalService); v != "" {
		c.Gateway.Signal.Service = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.Gateway.Telegram.Token = v
	}
	if v := os.Getenv(EnvIdleThreshold); v != "" {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", EnvIdleThreshold, v)
		}
		c.Bot.IdleThresholdDays = days
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			c.Bot.DryRun = boolPtr(true)
		case "false", "0", "no", "off":
			c.Bot.DryRun = boolPtr(false)
		default:
			return fmt.Errorf("%s: invalid boolean %q", EnvDryRun, v)
		}
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}

// expandEnv expands a ${VAR:default} reference.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// no default
	return os.Getenv(content)
}

// expandHome expands a leading ~ in path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
