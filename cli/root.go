// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/ku-polls/cliparse"
	"github.com/danielhkuo/ku-polls/db"
)

// NewRootCommand creates the root command for the polls CLI.
// Configuration flags are persistent so every subcommand accepts them.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polls",
		Short: "KU Polls - questions, choices and votes",
		Long: `KU Polls serves a small polling site: published questions, a voting
form for logged-in users, results, and a staff admin for questions and choices.

Configuration comes from a .env file, the environment and flags, in
increasing order of precedence. SECRET_KEY is required.`,
		SilenceUsage: true,
	}

	cliparse.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewCreateUserCommand())

	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and installs the default logger
func loadConfig(cmd *cobra.Command) (cliparse.Config, error) {
	cfg, err := cliparse.FromFlags(cmd.Flags())
	if err != nil {
		return cliparse.Config{}, err
	}
	slog.SetDefault(NewLogger(cfg.Env, cmd.ErrOrStderr()))
	return cfg, nil
}

// openDatabase connects using the configured driver
func openDatabase(ctx context.Context, cfg cliparse.Config) (*sql.DB, error) {
	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Debug("database connected", "type", cfg.DatabaseType)
	return conn, nil
}
