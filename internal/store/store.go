// Package store provides focused, single-concern data access stores
// for the backlog tracker.
//
// Each store owns one table family (projects, backlogs, audits) and
// embeds shared helpers (DB, logger) via the Base struct. Stores never
// import each other; shared logic lives in this file or in history.go.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const defaultQueryTimeout = 30 * time.Second

const (
	defaultListLimit = 50
	// maxListLimit is a defense-in-depth cap on limit values for list queries.
	maxListLimit = 1000
)

// Postgres error codes mapped to sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DB is the query surface stores need. *dbpool.Pool and pgxmock pools satisfy it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	DB  DB
	Log *logrus.Logger
}

// psql builds Postgres-flavoured queries with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// pgCode returns the SQLSTATE of err, or "" if it is not a Postgres error.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// clampPage normalises limit/offset pairs coming from the API.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// inTx runs fn inside a transaction, committing on success and rolling back
// when fn returns an error.
func (b *Base) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := b.beginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			b.Log.WithError(rbErr).Warn("rollback failed")
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
