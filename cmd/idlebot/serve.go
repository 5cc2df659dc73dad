package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/idlebot/internal/app"
	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/version"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot (main command)",
		Long: `Start the bot with the specified configuration.
This connects to the messaging gateway, loads the activity history and
handles commands until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(configPath, logLevel)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.LoggerConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger.SetDefault(log)

			log.Info("🚀 Starting Idle User Bot",
				logger.Field{Key: "version", Value: version.Version},
				logger.Field{Key: "git_commit", Value: version.GitCommit},
				logger.Field{Key: "config", Value: configPath})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.New(cfg, log).Run(ctx); err != nil {
				log.Error("Application stopped with error", err)
				return err
			}
			return nil
		},
	}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "Path to config file (toml or yaml)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging level (debug, info, warn, error)")

	return serveCmd
}

// loadServeConfig loads .env, the config file and the log level override,
// then validates the result.
func loadServeConfig(configPath, logLevel string) (*config.Config, error) {
	if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprint(os.Stderr, constants.MsgConfigValidationError)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, constants.MsgConfigValidatePrefix, e)
		}
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}
