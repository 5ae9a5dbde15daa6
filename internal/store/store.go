// Package store persists metadata snapshots and stub call logs in a SQL
// database. SQLite is the default; PostgreSQL is reachable through either the
// pgx or the lib/pq driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver "postgres"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver "sqlite3"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

var (
	// ErrUnsupportedDriver is returned for driver names Open does not know.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("snapshot not found")
)

// SupportedDrivers lists the accepted driver names.
func SupportedDrivers() []string {
	return []string{DriverSQLite, DriverPgx, DriverPostgres}
}

// Store is a snapshot database.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
	retry  RetryConfig
}

// Open connects to dsn with driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if !supported(driver) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps in-memory databases alive and matches
		// SQLite's single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, driver, logger)
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, logger *zap.Logger) (*Store, error) {
	if !supported(driver) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		driver: driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		retry:  DefaultRetryConfig(),
	}, nil
}

func supported(driver string) bool {
	for _, d := range SupportedDrivers() {
		if d == driver {
			return true
		}
	}
	return false
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string { return s.driver }

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL drivers.
func (s *Store) rebind(query string) string {
	if s.driver == DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
