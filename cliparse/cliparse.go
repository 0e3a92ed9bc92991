// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"

	EnvLocal = "local"
)

type Config struct {
	Port          int           `env:"PORT" env-default:"8000"`
	DatabaseURL   string        `env:"DATABASE_URL" env-default:"file:polls.db"`
	DatabaseType  string        `env:"DATABASE_TYPE" env-default:"sqlite"`
	SecretKey     string        `env:"SECRET_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"336h"`
	TimeZone      string        `env:"TIME_ZONE" env-default:"UTC"`
	Env           string        `env:"APP_ENV" env-default:"local"`
	SecureCookies bool          `env:"SECURE_COOKIES" env-default:"false"`

	// Location is resolved from TimeZone
	Location *time.Location
}

// RegisterFlags adds the configuration flags to fs.
// Flag defaults are empty so that only flags set explicitly override the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 0, "Server port")
	fs.StringP("database-url", "d", "", "Database URL")
	fs.StringP("database-type", "t", "", "Database type (sqlite or postgres)")
	fs.String("secret-key", "", "Secret for sessions and signed cookies (prefer env)")
	fs.Duration("session-ttl", 0, "Session lifetime")
	fs.String("time-zone", "", "Time zone for displaying and entering dates")
	fs.String("env", "", "Environment name (local, dev, prod)")
	fs.Bool("secure-cookies", false, "Mark cookies as Secure")
	fs.String("env-file", ".env", "Optional dotenv file")
}

// FromFlags resolves the configuration from the dotenv file, the environment
// and any flags set on fs, in increasing order of precedence.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	if envFile, _ := fs.GetString("env-file"); envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	if fs.Changed("port") {
		cfg.Port, _ = fs.GetInt("port")
	}
	if fs.Changed("database-url") {
		cfg.DatabaseURL, _ = fs.GetString("database-url")
	}
	if fs.Changed("database-type") {
		cfg.DatabaseType, _ = fs.GetString("database-type")
	}
	if fs.Changed("secret-key") {
		cfg.SecretKey, _ = fs.GetString("secret-key")
	}
	if fs.Changed("session-ttl") {
		cfg.SessionTTL, _ = fs.GetDuration("session-ttl")
	}
	if fs.Changed("time-zone") {
		cfg.TimeZone, _ = fs.GetString("time-zone")
	}
	if fs.Changed("env") {
		cfg.Env, _ = fs.GetString("env")
	}
	if fs.Changed("secure-cookies") {
		cfg.SecureCookies, _ = fs.GetBool("secure-cookies")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseFlags parses args into a new flag set and resolves the configuration
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("polls", pflag.ContinueOnError)
	RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return FromFlags(fs)
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if c.DatabaseType != DatabaseSQLite && c.DatabaseType != DatabasePostgres {
		return fmt.Errorf("unsupported database type %q (want sqlite or postgres)", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY required")
	}

	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	c.Location = loc

	return nil
}

// loadDotEnv loads the file if it exists. Variables already present in the
// environment are left untouched.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
