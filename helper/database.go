package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the Postgres
// instance backing the graph store.
type DatabaseConfiguration struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultDatabaseConfiguration returns sensible local defaults.
func DefaultDatabaseConfiguration() *DatabaseConfiguration {
	return &DatabaseConfiguration{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		DBName:          "ladybug",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DatabaseConfigurationFromEnv builds a configuration from DB_HOST/DB_PORT/
// DB_USER/DB_PASSWORD/DB_NAME/DB_SSLMODE, falling back to
// DefaultDatabaseConfiguration's values for anything unset.
func DatabaseConfigurationFromEnv() *DatabaseConfiguration {
	cfg := DefaultDatabaseConfiguration()

	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.SSLMode = v
	}

	return cfg
}

func (c *DatabaseConfiguration) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Database bundles a live *sql.DB with the supervisor's shared logger, so
// every handler constructed from it logs through the same sink.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
	Name     string
}

// NewDatabase opens a connection pool against the given configuration.
// It does not ping; callers call Ping or rely on the first query to surface
// connectivity errors, matching the teacher's lazy-open convention.
func NewDatabase(name string, cfg *DatabaseConfiguration, logger *slog.Logger) *Database {
	if cfg == nil {
		cfg = DefaultDatabaseConfiguration()
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		// sql.Open only validates the DSN shape; a malformed DSN here is a
		// programmer error in configuration decoding, not a runtime fault.
		logger.Error("open database", slog.String("error", err.Error()))
		return &Database{Instance: nil, Logger: logger, Name: name}
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Database{
		Instance: db,
		Logger:   logger,
		Name:     name,
	}
}

// NewDatabaseReadOnly opens a pool intended for the standalone MCP-only mode
// (no watcher running in this process). Postgres has no native read-only
// connection flag over the wire protocol used here, so this only documents
// intent; write-path handlers are simply never constructed against it.
func NewDatabaseReadOnly(name string, cfg *DatabaseConfiguration, logger *slog.Logger) *Database {
	return NewDatabase(name, cfg, logger)
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
