// Package config provides configuration loading and validation for idlebot.
// It supports TOML and YAML files with environment variable expansion,
// default values, environment overrides and validation.
//
// Configuration structure:
//   - [bot]: group, idle threshold, dry run, admin and protected users, command prefix
//   - [storage]: activity ledger backend (file, sqlite, redis)
//   - [gateway]: messaging platform (signal, telegram)
//   - [schedule]: periodic idle report
//   - [metrics]: Prometheus endpoint
//   - [logging]: level, format and output
//   - [message_bus]: queue capacity
//
// Environment variables:
// String values can reference environment variables using ${VAR} or
// ${VAR:default} syntax. For example: token = "${TELEGRAM_TOKEN}"
package config

import (
	"time"

	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/policy"
)

// Storage drivers
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Gateway drivers
const (
	GatewaySignal   = "signal"
	GatewayTelegram = "telegram"
)

// Config represents the main application configuration.
type Config struct {
	Bot        BotConfig        `toml:"bot" yaml:"bot"`
	Storage    StorageConfig    `toml:"storage" yaml:"storage"`
	Gateway    GatewayConfig    `toml:"gateway" yaml:"gateway"`
	Schedule   ScheduleConfig   `toml:"schedule" yaml:"schedule"`
	Metrics    MetricsConfig    `toml:"metrics" yaml:"metrics"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	MessageBus MessageBusConfig `toml:"message_bus" yaml:"message_bus"`
}

// BotConfig holds moderation settings and the watched group.
type BotConfig struct {
	GroupID           string `toml:"group_id" yaml:"group_id"`
	IdleThresholdDays int    `toml:"idle_threshold_days" yaml:"idle_threshold_days"`
	// DryRun is on unless explicitly set to false.
	DryRun                *bool    `toml:"dry_run" yaml:"dry_run"`
	AdminIDs              []string `toml:"admin_ids" yaml:"admin_ids"`
	ProtectedIDs          []string `toml:"protected_ids" yaml:"protected_ids"`
	CommandPrefix         string   `toml:"command_prefix" yaml:"command_prefix"`
	PreviewLimit          int      `toml:"preview_limit" yaml:"preview_limit"`
	RemovalTimeoutSeconds int      `toml:"removal_timeout_seconds" yaml:"removal_timeout_seconds"`
	RemovalConcurrency    int      `toml:"removal_concurrency" yaml:"removal_concurrency"`
}

// StorageConfig selects the activity ledger backend.
type StorageConfig struct {
	Driver        string `toml:"driver" yaml:"driver"`
	Path          string `toml:"path" yaml:"path"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	RedisKey      string `toml:"redis_key" yaml:"redis_key"`
}

// GatewayConfig selects the messaging platform.
type GatewayConfig struct {
	Driver   string         `toml:"driver" yaml:"driver"`
	Signal   SignalConfig   `toml:"signal" yaml:"signal"`
	Telegram TelegramConfig `toml:"telegram" yaml:"telegram"`
}

// SignalConfig configures the signal-cli REST gateway.
type SignalConfig struct {
	Service             string `toml:"service" yaml:"service"`
	Number              string `toml:"number" yaml:"number"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	TimeoutSeconds      int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// TelegramConfig configures the Telegram gateway.
type TelegramConfig struct {
	Token string `toml:"token" yaml:"token"`
}

// ScheduleConfig configures the periodic idle report. Empty IdleReport disables it.
type ScheduleConfig struct {
	IdleReport string `toml:"idle_report" yaml:"idle_report"`
	Timezone   string `toml:"timezone" yaml:"timezone"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// MessageBusConfig configures the message bus.
type MessageBusConfig struct {
	Capacity int `toml:"capacity" yaml:"capacity"`
}

// IsDryRun reports the effective dry-run setting.
func (b BotConfig) IsDryRun() bool {
	return b.DryRun == nil || *b.DryRun
}

// RemovalTimeout returns the per-candidate removal timeout.
func (b BotConfig) RemovalTimeout() time.Duration {
	return time.Duration(b.RemovalTimeoutSeconds) * time.Second
}

// PollInterval returns the receive poll interval.
func (s SignalConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// Timeout returns the HTTP timeout.
func (s SignalConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Settings returns the initial moderation settings.
func (c *Config) Settings() policy.Settings {
	return policy.Settings{
		IdleThresholdDays: c.Bot.IdleThresholdDays,
		DryRun:            c.Bot.IsDryRun(),
		AdminIDs:          append([]string(nil), c.Bot.AdminIDs...),
		ProtectedIDs:      append([]string(nil), c.Bot.ProtectedIDs...),
	}
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}
