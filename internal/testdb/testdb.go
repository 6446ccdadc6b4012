// Package testdb provides a migrated PostgreSQL database for integration tests.
//
// TEST_DATABASE_URL wins when set; otherwise a shared postgres container is
// started once per test binary. Tests are skipped when neither is available.
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/persistorai/backlog/internal/db"
	"github.com/persistorai/backlog/internal/db/migrations"
	"github.com/persistorai/backlog/internal/dbpool"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// Open returns a pool connected to a freshly migrated database. The pool is
// closed via t.Cleanup; the container lives until the process exits.
func Open(t *testing.T) *dbpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		once.Do(func() {
			sharedDSN, initErr = startContainer()
		})
		if initErr != nil {
			t.Fatalf("testdb: starting postgres: %v", initErr)
		}

		dsn = sharedDSN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, dsn, log, migrations.FS); err != nil {
		t.Fatalf("testdb: migrating: %v", err)
	}

	pool, err := dbpool.NewPool(ctx, dsn, dbpool.Options{MaxConns: 5})
	if err != nil {
		t.Fatalf("testdb: connecting: %v", err)
	}

	t.Cleanup(pool.Close)

	return pool
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "backlog",
			"POSTGRES_PASSWORD": "backlog",
			"POSTGRES_DB":       "backlog_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://backlog:backlog@%s:%s/backlog_test?sslmode=disable", host, port.Port()), nil
}
