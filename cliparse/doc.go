// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse resolves the server configuration.

# Sources

Settings are resolved in increasing order of precedence:

  1. Built-in defaults (env-default struct tags)
  2. A dotenv file (--env-file, default ".env"), which never overrides
     variables already present in the environment
  3. Environment variables, read with cleanenv
  4. Command-line flags that were set explicitly

# Settings

  - PORT (-p): Server port (default: 8000)
  - DATABASE_URL (-d): Connection string (default: file:polls.db)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SECRET_KEY (--secret-key): Required; signs sessions and cookies
  - SESSION_TTL (--session-ttl): Session lifetime (default: 336h)
  - TIME_ZONE (--time-zone): Display and form time zone (default: UTC)
  - APP_ENV (--env): local, dev or prod (default: local)
  - SECURE_COOKIES (--secure-cookies): Set the Secure cookie attribute

# Usage

With cobra, register the flags on a command and resolve them in RunE:

	cliparse.RegisterFlags(cmd.Flags())
	cfg, err := cliparse.FromFlags(cmd.Flags())

Or parse a raw argument list:

	cfg, err := cliparse.ParseFlags(os.Args[1:])
*/
package cliparse
