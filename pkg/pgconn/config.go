// Package pgconn provides the single-connection PostgreSQL transport that the
// notifelect core consumes: sequence fetches, pg_notify publishes, and
// LISTEN/UNLISTEN subscription management on one dedicated connection.
package pgconn

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the connection parameters used to dial PostgreSQL.
type Config struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Database string
	Password string
}

// LoadConfigFromEnv loads connection parameters from the standard libpq
// environment variables (PGDSN, PGHOST, PGPORT, PGUSER, PGDATABASE,
// PGPASSWORD), the same variables the CLI flags default from.
func LoadConfigFromEnv() (Config, error) {
	port := 5432
	if raw := os.Getenv("PGPORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PGPORT: %w", err)
		}
		port = p
	}

	cfg := Config{
		DSN:      os.Getenv("PGDSN"),
		Host:     os.Getenv("PGHOST"),
		Port:     port,
		User:     os.Getenv("PGUSER"),
		Database: os.Getenv("PGDATABASE"),
		Password: os.Getenv("PGPASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that enough information was supplied to dial a connection.
// A DSN alone is sufficient; otherwise host and database are required.
func (c Config) Validate() error {
	if c.DSN != "" {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("pgconn: either PGDSN or PGHOST must be set")
	}
	if c.Database == "" {
		return fmt.Errorf("pgconn: either PGDSN or PGDATABASE must be set")
	}
	return nil
}

// ConnString renders a libpq-compatible connection string from the config.
// If DSN was supplied directly it takes precedence over the discrete fields.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	connStr := fmt.Sprintf("host=%s dbname=%s", c.Host, c.Database)
	if c.Port != 0 {
		connStr += fmt.Sprintf(" port=%d", c.Port)
	}
	if c.User != "" {
		connStr += fmt.Sprintf(" user=%s", c.User)
	}
	if c.Password != "" {
		connStr += fmt.Sprintf(" password=%s", c.Password)
	}
	return connStr
}
