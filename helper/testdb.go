package helper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MustStartPostgresContainer starts a disposable Postgres instance with the
// pgvector extension available, for use by package-level TestMain functions
// across the module. It returns a teardown func and the mapped host port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("ladybug_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres container: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, "", fmt.Errorf("read mapped port: %w", err)
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points a DatabaseConfiguration's defaults at the
// container started by MustStartPostgresContainer. Tests call this before
// building a DatabaseConfiguration/Database pair.
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", port)
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "ladybug_test")
	t.Setenv("DB_SSLMODE", "disable")
}

// NewTestDatabase builds a Database against the env vars set by
// SetTestDatabaseConfigEnvs.
func NewTestDatabase(t *testing.T) *Database {
	t.Helper()
	cfg := DatabaseConfigurationFromEnv()
	db := NewDatabase("test", cfg, nil)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
