// Package builders assembles the pluggable parts of the application from
// configuration.
package builders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/logger"
)

// StorageBuilder opens the activity backend selected by storage.driver.
type StorageBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewStorageBuilder(cfg *config.Config, log *logger.Logger) *StorageBuilder {
	return &StorageBuilder{
		config: cfg,
		logger: log,
	}
}

func (b *StorageBuilder) Build(ctx context.Context) (activity.Backend, error) {
	s := b.config.Storage

	switch s.Driver {
	case config.StorageFile:
		if err := ensureParent(s.Path); err != nil {
			return nil, err
		}
		return activity.NewFileBackend(s.Path, b.logger), nil

	case config.StorageSQLite:
		if err := ensureParent(s.Path); err != nil {
			return nil, err
		}
		backend, err := activity.OpenSQLite(ctx, s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return backend, nil

	case config.StorageRedis:
		backend, err := activity.DialRedis(ctx, activity.RedisOptions{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
			Key:      s.RedisKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis storage: %w", err)
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", s.Driver)
	}
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return nil
}
