// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/ku-polls/cliparse"
)

// sqlitePragmas are applied by the driver to every new connection
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// sqliteDSN appends the connection pragmas to a SQLite URL
func sqliteDSN(url string) string {
	var b strings.Builder
	b.WriteString(url)
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	for _, pragma := range sqlitePragmas {
		b.WriteString(sep + "_pragma=" + pragma)
		sep = "&"
	}
	return b.String()
}

// Open connects to the database named by dbType and verifies the connection.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case cliparse.DatabaseSQLite:
		driver = "sqlite"
		url = sqliteDSN(url)
	case cliparse.DatabasePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == cliparse.DatabaseSQLite {
		// SQLite allows one writer
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}
