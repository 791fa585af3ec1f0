package main

import (
	"flag"
	"os"

	"github.com/janbjorge/notifelect/pkg/pgconn"
)

// connFlags are the PostgreSQL connection flags shared by every subcommand,
// backed by the standard libpq environment variables.
type connFlags struct {
	prefix   string
	pgDSN    string
	pgHost   string
	pgPort   string
	pgUser   string
	pgDB     string
	pgPass   string
}

func (f *connFlags) register(fs *flag.FlagSet) {
	fs.Func("prefix", "prefix applied to the shared sequence and channel names; sets NOTIFELECT_PREFIX if unset", func(v string) error {
		f.prefix = v
		if os.Getenv("NOTIFELECT_PREFIX") == "" {
			return os.Setenv("NOTIFELECT_PREFIX", v)
		}
		return nil
	})
	fs.StringVar(&f.pgDSN, "pg-dsn", os.Getenv("PGDSN"), "libpq connection URI; defaults to PGDSN")
	fs.StringVar(&f.pgHost, "pg-host", os.Getenv("PGHOST"), "database host; defaults to PGHOST")
	fs.StringVar(&f.pgPort, "pg-port", getEnvOrDefault("PGPORT", "5432"), "database port; defaults to PGPORT")
	fs.StringVar(&f.pgUser, "pg-user", os.Getenv("PGUSER"), "database role; defaults to PGUSER")
	fs.StringVar(&f.pgDB, "pg-database", os.Getenv("PGDATABASE"), "database name; defaults to PGDATABASE")
	fs.StringVar(&f.pgPass, "pg-password", os.Getenv("PGPASSWORD"), "database password; defaults to PGPASSWORD")
}

func (f *connFlags) config() (pgconn.Config, error) {
	port := 5432
	if f.pgPort != "" {
		if p, err := parsePort(f.pgPort); err == nil {
			port = p
		}
	}
	cfg := pgconn.Config{
		DSN:      f.pgDSN,
		Host:     f.pgHost,
		Port:     port,
		User:     f.pgUser,
		Database: f.pgDB,
		Password: f.pgPass,
	}
	if err := cfg.Validate(); err != nil {
		return pgconn.Config{}, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
