package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/constants"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Validate and inspect idlebot configuration.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long: `Validate the configuration file and check for errors.
Every problem is reported, not just the first one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := constants.DefaultConfigPath
			if len(args) > 0 {
				configPath = args[0]
			}

			if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
				return fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
			}

			out := cmd.OutOrStdout()
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintf(out, constants.MsgConfigLoadError, err)
				return err
			}

			if errs := cfg.Validate(); len(errs) > 0 {
				fmt.Fprint(out, constants.MsgConfigValidationError)
				for _, e := range errs {
					fmt.Fprintf(out, constants.MsgConfigValidatePrefix, e)
				}
				return fmt.Errorf("config validation failed: %d errors", len(errs))
			}

			redacted := cfg.Redacted()
			fmt.Fprintf(out, "%s: %s\n", constants.MsgConfigValid, configPath)
			fmt.Fprintf(out, "  gateway: %s\n", redacted.Gateway.Driver)
			fmt.Fprintf(out, "  storage: %s\n", redacted.Storage.Driver)
			fmt.Fprintf(out, "  group: %s\n", redacted.Bot.GroupID)
			fmt.Fprintf(out, "  idle threshold: %d days\n", redacted.Bot.IdleThresholdDays)
			fmt.Fprintf(out, "  dry run: %t\n", redacted.Bot.IsDryRun())
			if redacted.Gateway.Driver == config.GatewayTelegram {
				fmt.Fprintf(out, "  telegram token: %s\n", redacted.Gateway.Telegram.Token)
			}
			return nil
		},
	})

	return configCmd
}
