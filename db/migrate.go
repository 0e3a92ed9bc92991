// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/danielhkuo/ku-polls/cliparse"
)

//go:embed migrations
var migrations embed.FS

// NewMigrator returns a migrate instance over the embedded migrations for dbType.
// Do not Close it: closing the database driver closes conn as well.
func NewMigrator(conn *sql.DB, dbType string) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch dbType {
	case cliparse.DatabaseSQLite:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	case cliparse.DatabasePostgres:
		driver, err = postgres.WithInstance(conn, &postgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+dbType)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbType, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations.
// Safe to call multiple times - an up-to-date schema is not an error.
func Migrate(conn *sql.DB, dbType string) error {
	m, err := NewMigrator(conn, dbType)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
