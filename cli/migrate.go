// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/ku-polls/db"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	Action  string
	Steps   int
	Version int
}

// ValidActions are the migrate actions
var ValidActions = []string{"up", "down", "version", "force"}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
		Long: `Apply, roll back or inspect the embedded schema migrations.

Example:
  polls migrate                     # apply everything pending
  polls migrate --action down       # roll back one migration
  polls migrate --action version
  polls migrate --action force --version 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			m, err := db.NewMigrator(conn, cfg.DatabaseType)
			if err != nil {
				return err
			}
			return runMigrate(m, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "up", "migration action (up|down|version|force)")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "number of migrations to apply or roll back (0 means all for up, 1 for down)")
	cmd.Flags().IntVar(&opts.Version, "version", -1, "version to force")

	return cmd
}

// migrator is the subset of *migrate.Migrate the command drives
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(v int) error
}

func runMigrate(m migrator, opts *MigrateOptions, out io.Writer) error {
	var err error
	switch opts.Action {
	case "up":
		if opts.Steps > 0 {
			err = m.Steps(opts.Steps)
		} else {
			err = m.Up()
		}
	case "down":
		steps := opts.Steps
		if steps <= 0 {
			steps = 1
		}
		err = m.Steps(-steps)
	case "force":
		if opts.Version < 0 {
			return errors.New("force requires --version")
		}
		err = m.Force(opts.Version)
	case "version":
	default:
		return fmt.Errorf("invalid action %q: must be one of %v", opts.Action, ValidActions)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no migrations to apply")
	} else if err != nil {
		return fmt.Errorf("migrate %s failed: %w", opts.Action, err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	fmt.Fprintf(out, "schema version %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
	return nil
}
