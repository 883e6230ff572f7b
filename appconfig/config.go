// Package appconfig decodes the environment-variable-driven process
// configuration §6 names, in the teacher's plain typed-struct-plus-default
// style (model/config.go's SearchConfig/DefaultSearchConfig).
package appconfig

import (
	"os"
	"strconv"
)

// Config is the full set of environment-derived settings ladybugd reads at
// startup.
type Config struct {
	// DBPath names the local directory used for supervisor-owned state that
	// isn't a Postgres row: the config-tracker sidecar (space_config.json)
	// and any future on-disk cache. The graph/vector store itself connects
	// to Postgres via the DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME/
	// DB_SSLMODE variables read by helper.DatabaseConfigurationFromEnv, since
	// the teacher's persistence layer is already a relational database, not
	// an embedded file-backed engine.
	DBPath    string
	SpacePath string

	GRPCPort int
	MCPPort  int

	EmbeddingProvider string // "remote" or "local"
	EnableEmbeddings  bool

	AllowLibraryManagement bool
}

// Default returns the documented defaults for every setting, before any
// environment variable is applied.
func Default() Config {
	return Config{
		DBPath:            "/data/ladybug",
		SpacePath:         "/space",
		GRPCPort:          50051,
		MCPPort:           8000,
		EmbeddingProvider: "remote",
		EnableEmbeddings:  true,
	}
}

// FromEnv reads Config from the process environment, falling back to
// Default() for anything unset.
func FromEnv() Config {
	cfg := Default()
	cfg.DBPath = stringEnv("DB_PATH", cfg.DBPath)
	cfg.SpacePath = stringEnv("SPACE_PATH", cfg.SpacePath)
	cfg.GRPCPort = intEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.MCPPort = intEnv("MCP_PORT", cfg.MCPPort)
	cfg.EmbeddingProvider = stringEnv("EMBEDDING_PROVIDER", cfg.EmbeddingProvider)
	cfg.EnableEmbeddings = boolEnv("ENABLE_EMBEDDINGS", cfg.EnableEmbeddings)
	cfg.AllowLibraryManagement = boolEnv("ALLOW_LIBRARY_MANAGEMENT", cfg.AllowLibraryManagement)
	return cfg
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
