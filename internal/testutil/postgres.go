// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/storage/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer is a running PostgreSQL container and a pool connected
// to it. Both are released when the test ends.
type PostgresContainer struct {
	Pool   *postgres.Pool
	Config config.DatabaseConfig
}

// NewPostgresContainer starts PostgreSQL in Docker and connects to it.
// Tests calling it are skipped under -short.
//
// Precondition: a Docker daemon is reachable.
// Postcondition: returns a connected container or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}
	ctx := context.Background()
	began := time.Now()

	cfg := config.DatabaseConfig{
		Enabled:         true,
		User:            "mudmap",
		Password:        "mudmap",
		Name:            "mudmap_test",
		SSLMode:         "disable",
		MaxConns:        4,
		MaxConnLifetime: time.Minute,
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     cfg.User,
				"POSTGRES_PASSWORD": cfg.Password,
				"POSTGRES_DB":       cfg.Name,
			},
			// The server restarts once after initdb.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", postgresImage, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	if cfg.Host, err = c.Host(ctx); err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	cfg.Port = port.Int()

	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to %s:%d: %v", cfg.Host, cfg.Port, err)
	}
	t.Cleanup(pool.Close)
	t.Logf("%s ready on %s:%d after %s", postgresImage, cfg.Host, cfg.Port, time.Since(began))

	return &PostgresContainer{Pool: pool, Config: cfg}
}

// NewPool starts a migrated container and returns its pgx pool.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.Migrate(t)
	return pc.Pool.DB()
}

// MigrationsDir is the absolute path of the repository's migrations.
func MigrationsDir() string {
	_, here, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(here), "..", "..", "migrations")
}

// Migrate applies every up migration the same way cmd/migrate does.
func (pc *PostgresContainer) Migrate(t *testing.T) {
	t.Helper()
	m, err := migrate.New("file://"+filepath.ToSlash(MigrationsDir()), pc.Config.DSN())
	if err != nil {
		t.Fatalf("opening migrations: %v", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrating up: %v", err)
	}
}
