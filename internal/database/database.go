// Package database wraps a pgx connection pool behind the small executor
// surface the rest of querychat consumes: run a SQL statement, get back an
// ordered result set of row mappings.
//
// Each user session dials its own database with caller-supplied credentials,
// so unlike a conventional service there is no single process-wide pool.
// The registry package owns the session-to-pool mapping; this package only
// knows how to dial and query one database.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querychat/querychat/internal/log"
)

// Sentinel errors for credential validation and dialing.
var (
	// ErrMissingCredential indicates a required credential field is empty.
	ErrMissingCredential = errors.New("missing credential")

	// ErrConnectionFailed indicates the database could not be reached or
	// rejected the credentials.
	ErrConnectionFailed = errors.New("connection failed")
)

// Credentials parameterize one relational database connection.
// All fields are required.
type Credentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Validate reports the first missing credential field.
func (c Credentials) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: host", ErrMissingCredential)
	case c.Port <= 0:
		return fmt.Errorf("%w: port", ErrMissingCredential)
	case c.User == "":
		return fmt.Errorf("%w: user", ErrMissingCredential)
	case c.Password == "":
		return fmt.Errorf("%w: password", ErrMissingCredential)
	case c.Database == "":
		return fmt.Errorf("%w: database", ErrMissingCredential)
	}
	return nil
}

// DSN returns the pgx keyword/value connection string.
// Password is single-quoted to handle special characters (spaces, =, quotes).
func (c Credentials) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, quoteDSNValue(c.Password), c.Database)
}

// quoteDSNValue quotes a value for PostgreSQL key=value DSN format.
// Within single quotes, backslashes and single quotes are escaped.
func quoteDSNValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Conn is the executor surface consumed by the schema introspector and the
// query orchestrator. *DB implements it; tests substitute fakes.
type Conn interface {
	// Query executes sql and returns all rows in result order.
	Query(ctx context.Context, sql string) (ResultSet, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the underlying pool.
	Close()
}

// DB is a pooled connection to one relational database.
type DB struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

var _ Conn = (*DB)(nil)

// Connect dials the database described by creds and verifies it with a ping.
// A dial or ping failure wraps ErrConnectionFailed and leaves nothing open.
func Connect(ctx context.Context, creds Credentials, logger log.Logger) (*DB, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, creds.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.Debug("database connected", "host", creds.Host, "database", creds.Database)
	return &DB{pool: pool, logger: logger}, nil
}

// Probe dials, pings, and immediately closes. It is used by the connection
// test endpoint to validate credentials without registering anything.
func Probe(ctx context.Context, creds Credentials, logger log.Logger) error {
	db, err := Connect(ctx, creds, logger)
	if err != nil {
		return err
	}
	db.Close()
	return nil
}

// Query executes sql and materializes every row as a column-name → value
// mapping, preserving both row order and column order.
func (d *DB) Query(ctx context.Context, sql string) (ResultSet, error) {
	rows, err := d.pool.Query(ctx, sql)
	if err != nil {
		return ResultSet{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	rs := ResultSet{Columns: columns}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return ResultSet{}, fmt.Errorf("read row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("query: %w", err)
	}

	return rs, nil
}

// Ping verifies the pool can reach the database.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Close releases the pool. Safe to call once.
func (d *DB) Close() {
	d.pool.Close()
}
