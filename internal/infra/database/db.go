package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq" // PostgreSQL driver and error codes
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute

	sqliteBusyTimeout = 5 * time.Second
	// UTC with fixed-width fraction so TEXT comparison orders like time.
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout       = "2006-01-02"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialect papers over the few differences between the two supported SQL backends.
// Queries are written with PostgreSQL placeholders ($1, $2, ...).
type Dialect struct {
	Driver string
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return Dialect{Driver: driver}, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Rebind rewrites $N placeholders into SQLite's ?N form.
func (d Dialect) Rebind(query string) string {
	if d.Driver != DriverSQLite {
		return query
	}
	return placeholderPattern.ReplaceAllString(query, "?${1}")
}

func (d Dialect) timeArg(t time.Time) any {
	if d.Driver == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}

func (d Dialect) nullTimeArg(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return d.timeArg(t.Time)
}

func dateArg(t time.Time) string {
	return t.Format(dateLayout)
}

func (d Dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// NewConnection opens a pooled connection for driver and pings it.
func NewConnection(driver, dataSourceName string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		return newPostgresConnection(dataSourceName)
	case DriverSQLite:
		return newSQLiteConnection(dataSourceName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func newPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func newSQLiteConnection(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables the service needs if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	ddl := postgresSchema
	if d.Driver == DriverSQLite {
		ddl = sqliteSchema
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
