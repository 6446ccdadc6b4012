// Package db applies the embedded schema migrations with goose.
//
// Migration files live in internal/db/migrations/ and are embedded via //go:embed.
// On startup, RunMigrations applies all pending migrations before the HTTP
// server starts accepting requests.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// RunMigrations applies all pending migrations from fsys against connStr.
// The fsys should contain goose-annotated SQL files (e.g. "001_projects.sql").
func RunMigrations(ctx context.Context, connStr string, log *logrus.Logger, fsys fs.FS) error {
	// goose requires a *sql.DB, so open one through the pgx stdlib driver.
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.Debug("schema up to date")
	}

	return nil
}
