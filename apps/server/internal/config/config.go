// Package config loads the server settings from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"homegame/apps/server/internal/audit"
	"homegame/table"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"3000"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	TurnPolicy     string `env:"TURN_POLICY" envDefault:"trust"`
	DefaultBaseBet int64  `env:"DEFAULT_BASE_BET" envDefault:"200"`
	MaxBet         int64  `env:"MAX_BET" envDefault:"1000000000"`

	AuditMode        string `env:"AUDIT_MODE" envDefault:"memory"`
	AuditSQLitePath  string `env:"AUDIT_SQLITE_PATH" envDefault:"data/audit.db"`
	AuditDatabaseURL string `env:"AUDIT_DATABASE_URL"`
	AuditRecentLimit int    `env:"AUDIT_RECENT_LIMIT" envDefault:"200"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the given .env files (".env" when none are named) and then
// parses the environment. Variables already set win over file values, and
// a missing file is not an error.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Port)
	}
	if _, err := c.TableConfig(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.AuditMode) {
	case audit.ModeMemory, audit.ModeSQLite:
	case audit.ModePostgres:
		if strings.TrimSpace(c.AuditDatabaseURL) == "" {
			return fmt.Errorf("AUDIT_DATABASE_URL is required when AUDIT_MODE=%s", audit.ModePostgres)
		}
	default:
		return fmt.Errorf("AUDIT_MODE must be memory, sqlite or postgres, got %q", c.AuditMode)
	}
	if c.AuditRecentLimit <= 0 {
		return fmt.Errorf("AUDIT_RECENT_LIMIT must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

func (c Config) TableConfig() (table.Config, error) {
	policy, err := table.ParseTurnPolicy(strings.ToLower(strings.TrimSpace(c.TurnPolicy)))
	if err != nil {
		return table.Config{}, err
	}
	cfg := table.DefaultConfig()
	cfg.TurnPolicy = policy
	cfg.DefaultBaseBet = c.DefaultBaseBet
	cfg.MaxBet = c.MaxBet
	if err := cfg.Validate(); err != nil {
		return table.Config{}, fmt.Errorf("table config: %w", err)
	}
	return cfg, nil
}

func (c Config) Audit() audit.Options {
	return audit.Options{
		Mode:        c.AuditMode,
		SQLitePath:  c.AuditSQLitePath,
		DatabaseURL: c.AuditDatabaseURL,
		RecentLimit: c.AuditRecentLimit,
	}
}
