package constants

import "time"

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// Bot defaults
const (
	DefaultIdleThresholdDays  = 30
	DefaultPreviewLimit       = 10
	DefaultRemovalTimeout     = 15 * time.Second
	DefaultRemovalConcurrency = 1
	DefaultBusCapacity        = 100
)

// Gateway defaults
const (
	DefaultSignalService      = "127.0.0.1:8080"
	DefaultSignalPollInterval = 2 * time.Second
	DefaultSignalTimeout      = 30 * time.Second
	DefaultRedisKey           = "idlebot:activity"
)
