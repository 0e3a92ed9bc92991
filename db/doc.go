// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and owns the schema.

# Connections

Open selects the driver from the database type:

	conn, err := db.Open(ctx, "sqlite", "file:polls.db")
	conn, err := db.Open(ctx, "postgres", "postgres://...")

SQLite connections are limited to one open connection. The foreign_keys,
busy_timeout and WAL pragmas are added to the DSN as _pragma parameters, so
the driver applies them to every connection it opens.

# Migrations

Schema changes live in migrations/<type>/NNNNNN_name.{up,down}.sql and are
embedded into the binary. Migrate applies everything pending:

	if err := db.Migrate(conn, "sqlite"); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times. NewMigrator exposes the underlying
golang-migrate instance for the migrate command (up, down, version, force).

# Tables

  - users: accounts (bcrypt hash, staff flag)
  - question: poll prompts with pub_date and end_date
  - choice: answers per question with a cached vote count
  - vote: one row per (user, question)

# Relationships

	question 1──* choice
	question 1──* vote
	choice   1──* vote
	users    1──* vote

All foreign keys use ON DELETE CASCADE.
*/
package db
