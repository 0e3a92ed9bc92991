// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cli wires the cobra command tree: serve, migrate and createuser.
// Each command resolves its configuration through cliparse and installs a
// slog default logger before touching the database.
package cli
