// Package pg implements the user and role stores on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/forgeml/platform/internal/auth"
)

const (
	pgErrUniqueViolation = "23505"

	defaultQueryTimeout = 3 * time.Second
)

// Store holds the shared connection pool. UserStore and RoleStore views are
// exposed through Users() and Roles().
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string, queryTimeout time.Duration) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db, queryTimeout), nil
}

// New wraps an existing pool (used by tests with sqlmock).
func New(db *sql.DB, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Store{db: db, queryTimeout: queryTimeout}
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the pool for readiness probes.
func (s *Store) DB() *sql.DB { return s.db }

// Users returns the auth.UserStore view.
func (s *Store) Users() auth.UserStore { return &userStore{s} }

// Roles returns the auth.RoleStore view.
func (s *Store) Roles() auth.RoleStore { return &roleStore{s} }

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// wrapErr maps driver errors onto the auth taxonomy: no rows, unique
// violations and deadline expiry each get their sentinel.
func wrapErr(op string, err error, onConflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return onConflict
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out", auth.ErrDependencyUnavailable, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
