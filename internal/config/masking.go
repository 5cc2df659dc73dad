package config

import (
	"strings"
)

// maskSecret keeps only the first 4 and last 4 characters of secret.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	// too short to reveal anything
	if len(secret) < 8 {
		return "***"
	}

	prefix := secret[:4]
	suffix := secret[len(secret)-4:]
	masked := strings.Repeat("*", len(secret)-8)

	return prefix + masked + suffix
}

// maskTelegramToken masks a Telegram token, leaving the bot ID visible.
func maskTelegramToken(token string) string {
	if token == "" {
		return ""
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return maskSecret(token)
	}

	return parts[0] + ":" + maskSecret(parts[1])
}

// formatValidationError formats a validation error; masked is already masked.
func formatValidationError(field, message, masked string) error {
	errorMsg := field + ": " + message
	if masked != "" {
		errorMsg += " (value: " + masked + ")"
	}
	return &ValidationError{Field: field, Message: errorMsg}
}

// ValidationError is a validation failure tied to a config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Redacted returns a copy safe to print: secrets are masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Gateway.Telegram.Token = maskTelegramToken(c.Gateway.Telegram.Token)
	out.Storage.RedisPassword = maskSecret(c.Storage.RedisPassword)
	return out
}
