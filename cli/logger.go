// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"io"
	"log/slog"

	"github.com/14kear/sso-prettyslog/slogpretty/slogpretty"

	"github.com/danielhkuo/ku-polls/cliparse"
)

// NewLogger returns a colored debug logger for local development and a JSON
// logger at info level everywhere else.
func NewLogger(env string, w io.Writer) *slog.Logger {
	if env == cliparse.EnvLocal {
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
		}
		return slog.New(opts.NewPrettyHandler(w))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("env", env)
}
