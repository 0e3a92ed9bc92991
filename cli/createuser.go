// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/db"
	"github.com/danielhkuo/ku-polls/models"
	"github.com/danielhkuo/ku-polls/store"
)

// CreateUserOptions holds flags for the createuser command.
type CreateUserOptions struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Staff     bool
}

// NewCreateUserCommand creates the createuser command.
func NewCreateUserCommand() *cobra.Command {
	opts := &CreateUserOptions{}

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a user account",
		Long: `Create a user account, optionally with staff access to /admin/.

Example:
  polls createuser --username admin --password s3cret-pass --staff`,
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

			if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
				return err
			}

			return createUser(cmd.Context(), store.New(conn), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (required)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().BoolVar(&opts.Staff, "staff", false, "grant admin access")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func createUser(ctx context.Context, st *store.Storage, opts *CreateUserOptions, out io.Writer) error {
	if !models.ValidUsername(opts.Username) {
		return fmt.Errorf("username must be 1 to %d letters, digits or @/./+/-/_ characters", models.MaxUsernameLength)
	}
	if utf8.RuneCountInString(opts.Password) < auth.MinPasswordLength {
		return fmt.Errorf("password must contain at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return err
	}

	id, err := st.CreateUser(ctx, models.User{
		Username:  opts.Username,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		PassHash:  hash,
		IsStaff:   opts.Staff,
		CreatedAt: time.Now(),
	})
	if errors.Is(err, store.ErrUserExists) {
		return fmt.Errorf("user %q already exists", opts.Username)
	}
	if err != nil {
		return err
	}

	slog.Info("user created", "user_id", id, "username", opts.Username, "staff", opts.Staff)
	fmt.Fprintf(out, "created user %s (id %d)\n", opts.Username, id)
	return nil
}
