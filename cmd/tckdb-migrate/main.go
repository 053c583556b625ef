package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tckdb/config"
	"tckdb/migrations"
	"tckdb/storage"
)

var (
	timeout time.Duration
	dryRun  bool
)

func init() {
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Minute, "Maximum duration for store access")
	upCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list pending migrations")

	rootCmd.AddCommand(upCmd, versionCmd, checkCmd)
}

var rootCmd = &cobra.Command{
	Use:           "tckdb-migrate",
	Short:         "Manage the tckdb store schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGatekeeper(cmd.Context(), func(ctx context.Context, gate *migrations.Gatekeeper) error {
			pending, err := gate.Pending(ctx)
			if err != nil {
				return err
			}
			if dryRun {
				for _, m := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "pending %d %s\n", m.Version, m.Name)
				}
				return nil
			}
			applied, err := gate.Upgrade(ctx)
			if err != nil {
				return fmt.Errorf("upgrade failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s), schema version %d\n", applied, gate.Expected())
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print store and expected schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGatekeeper(cmd.Context(), func(ctx context.Context, gate *migrations.Gatekeeper) error {
			v, err := gate.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store:    %d\nexpected: %d\n", v, gate.Expected())
			return nil
		})
	},
}

// checkCmd endet mit Exit-Code != 0, solange das Schema nicht passt (Readiness-Probe, Init-Container).
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Exit non-zero unless the store schema matches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGatekeeper(cmd.Context(), func(ctx context.Context, gate *migrations.Gatekeeper) error {
			if err := gate.Check(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		})
	},
}

func withGatekeeper(parent context.Context, fn func(context.Context, *migrations.Gatekeeper) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	logging, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logging.Sync()

	db, err := storage.OpenDatabase(cfg, logging)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return fn(ctx, migrations.NewGatekeeper(db, logging))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
