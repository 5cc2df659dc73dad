package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aatumaykin/idlebot/internal/schedule"
)

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateBot()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateGateway()...)

	if c.Schedule.IdleReport != "" {
		if err := schedule.Validate(c.Schedule.IdleReport); err != nil {
			errs = append(errs, fmt.Errorf("schedule.idle_report: %w", err))
		}
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule.timezone: %s", c.Schedule.Timezone))
		}
	}

	// logging
	if c.Logging.Level == "" {
		errs = append(errs, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errs = append(errs, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errs = append(errs, fmt.Errorf("logging.output is required"))
	}

	if c.MessageBus.Capacity < 1 {
		errs = append(errs, fmt.Errorf("message_bus.capacity must be >= 1"))
	}

	return errs
}

func (c *Config) validateBot() []error {
	var errs []error
	b := c.Bot

	if b.GroupID == "" {
		errs = append(errs, fmt.Errorf("bot.group_id is required"))
	}
	if b.IdleThresholdDays <= 0 {
		errs = append(errs, fmt.Errorf("bot.idle_threshold_days must be a positive number of days (got %d)", b.IdleThresholdDays))
	}
	if b.CommandPrefix == "" || strings.IndexFunc(b.CommandPrefix, unicode.IsSpace) >= 0 {
		errs = append(errs, fmt.Errorf("bot.command_prefix must be non-empty and contain no spaces"))
	}
	if b.PreviewLimit < 1 {
		errs = append(errs, fmt.Errorf("bot.preview_limit must be >= 1"))
	}
	if b.RemovalTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("bot.removal_timeout_seconds must be >= 1"))
	}
	if b.RemovalConcurrency < 1 {
		errs = append(errs, fmt.Errorf("bot.removal_concurrency must be >= 1"))
	}
	for _, id := range b.AdminIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("bot.admin_ids contains empty id"))
		}
	}
	for _, id := range b.ProtectedIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("bot.protected_ids contains empty id"))
		}
	}
	return errs
}

func (c *Config) validateStorage() []error {
	s := c.Storage

	switch s.Driver {
	case StorageFile, StorageSQLite:
		if err := validatePath(s.Path, "storage.path"); err != nil {
			return []error{err}
		}
	case StorageRedis:
		if s.RedisAddr == "" {
			return []error{fmt.Errorf("storage.redis_addr is required when driver is 'redis'")}
		}
		if s.RedisDB < 0 {
			return []error{fmt.Errorf("storage.redis_db must be >= 0")}
		}
	default:
		return []error{fmt.Errorf("invalid storage.driver: %s (expected: file, sqlite, redis)", s.Driver)}
	}
	return nil
}

func (c *Config) validateGateway() []error {
	var errs []error
	g := c.Gateway

	switch g.Driver {
	case GatewaySignal:
		if g.Signal.Number == "" {
			errs = append(errs, fmt.Errorf("gateway.signal.number is required when driver is 'signal'"))
		}
		if g.Signal.Service == "" {
			errs = append(errs, fmt.Errorf("gateway.signal.service is required when driver is 'signal'"))
		}
		if g.Signal.PollIntervalSeconds < 1 {
			errs = append(errs, fmt.Errorf("gateway.signal.poll_interval_seconds must be >= 1"))
		}
		if g.Signal.TimeoutSeconds < 1 {
			errs = append(errs, fmt.Errorf("gateway.signal.timeout_seconds must be >= 1"))
		}
	case GatewayTelegram:
		if g.Telegram.Token == "" {
			errs = append(errs, fmt.Errorf("gateway.telegram.token is required when driver is 'telegram'"))
		} else if err := validateTelegramToken(g.Telegram.Token); err != nil {
			errs = append(errs, err)
		}
		if c.Bot.GroupID != "" {
			if _, err := strconv.ParseInt(c.Bot.GroupID, 10, 64); err != nil {
				errs = append(errs, fmt.Errorf("bot.group_id must be a numeric chat id for telegram (got %s)", c.Bot.GroupID))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid gateway.driver: %s (expected: signal, telegram)", g.Driver))
	}
	return errs
}

func validateTelegramToken(token string) error {
	const field = "gateway.telegram.token"

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return formatValidationError(field, "invalid format (expected format: <bot_id>:<token>)", maskTelegramToken(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return formatValidationError(field, fmt.Sprintf("invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID)), "")
	}

	// Check that bot ID contains only digits
	for _, r := range botID {
		if r < '0' || r > '9' {
			return formatValidationError(field, "invalid bot ID (expected digits only)", maskTelegramToken(token))
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return formatValidationError(field, fmt.Sprintf("invalid token length (expected 10-50 characters, got %d)", len(botToken)), "")
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}
