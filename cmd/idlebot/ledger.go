package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/app/builders"
	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/logger"
)

func newLedgerCmd() *cobra.Command {
	var configPath string

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and import activity history",
		Long:  `Read the activity ledger of the configured storage backend, or merge an activity file into it.`,
	}
	ledgerCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "Path to config file (toml or yaml)")

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List tracked users, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readLedger(cmd.Context(), configPath)
			if err != nil {
				return err
			}

			rows := make([]activity.Record, 0, len(records))
			for _, rec := range records {
				rows = append(rows, rec)
			}
			slices.SortFunc(rows, func(a, b activity.Record) int {
				if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
					return c
				}
				if a.UserID < b.UserID {
					return -1
				}
				if a.UserID > b.UserID {
					return 1
				}
				return 0
			})

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, constants.MsgLedgerEmpty)
				return nil
			}

			now := time.Now()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tLAST SEEN\tDAYS IDLE\tMESSAGES")
			for _, rec := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n",
					rec.UserID,
					rec.LastSeen.Local().Format("2006-01-02 15:04"),
					int(now.Sub(rec.LastSeen).Hours()/24),
					rec.MessageCount)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, constants.MsgLedgerTotal, len(rows))
			return nil
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "import <activity.json>",
		Short: "Merge an activity file into the configured storage",
		Long: `Merge an activity JSON file into the configured storage backend.
For users present on both sides the later last_seen, the earlier first_seen
and the larger message count are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := activity.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ledger, err := openLedger(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer ledger.Close()

			ids := make([]string, 0, len(records))
			for id := range records {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			for _, id := range ids {
				if err := ledger.Merge(cmd.Context(), records[id]); err != nil {
					return fmt.Errorf("import stopped at %s: %w", id, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), constants.MsgLedgerImported, len(ids), args[0])
			return nil
		},
	})

	return ledgerCmd
}

// readLedger loads the records of the configured storage without modifying
// it. An unreadable activity file is reported and left where it is.
func readLedger(ctx context.Context, configPath string) (map[string]activity.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Driver == config.StorageFile {
		records, err := activity.ReadFile(cfg.Storage.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]activity.Record{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cfg.Storage.Path, err)
		}
		return records, nil
	}

	backend, err := builders.NewStorageBuilder(cfg, logger.NewNop()).Build(ctx)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	return backend.Load(ctx)
}

// openLedger opens the storage named by the config file. Only the storage
// section needs to be valid.
func openLedger(ctx context.Context, configPath string) (*activity.Ledger, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewNop()
	backend, err := builders.NewStorageBuilder(cfg, log).Build(ctx)
	if err != nil {
		return nil, err
	}
	return activity.Open(ctx, backend, log), nil
}
