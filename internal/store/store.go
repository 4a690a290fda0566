// Package store persists categories, brands, products and crawl sessions.
// Every single-entity upsert runs in its own transaction unless it is
// called on a Tx handed out by WithTx.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

const (
	// DefaultMaxOpenConns is the pool size used for server databases
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the idle pool size used for server databases
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the connection lifetime used for server databases
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout bounds the connectivity check in Open
	DefaultPingTimeout = 5 * time.Second
)

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = errors.New("not found")

// Dialect identifies the SQL flavour of the connected database
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

// Store is the persistence layer
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	log     *logger.Logger
	now     func() time.Time
}

// Open connects to databaseURL, verifies the connection and creates the
// schema. Accepted forms are sqlite:///path, sqlite:///:memory:, a bare
// file path and postgres:// URLs.
func Open(ctx context.Context, databaseURL string, log *logger.Logger) (*Store, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, apperrors.NewPersistence("open", "failed to open database", err)
	}

	if dialect == SQLite {
		// One connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.NewPersistence("open", "failed to ping database", err)
	}

	s := New(db, log)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info().Str("dialect", string(dialect)).Msg("database initialized")
	return s, nil
}

// New wraps an open connection. The dialect follows the driver name.
func New(db *sqlx.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	dialect := SQLite
	if strings.HasPrefix(db.DriverName(), "postgres") {
		dialect = Postgres
	}
	return &Store{
		db:      db,
		dialect: dialect,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ParseDatabaseURL returns the dialect and driver DSN for a database URL
func ParseDatabaseURL(databaseURL string) (Dialect, string, error) {
	raw := strings.TrimSpace(databaseURL)
	switch {
	case raw == "":
		return "", "", apperrors.NewConfiguration("database URL is empty", nil)
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Postgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		raw = strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite://"), "/")
		if raw == "" {
			return "", "", apperrors.NewConfiguration("sqlite URL has no path: "+databaseURL, nil)
		}
	case strings.Contains(raw, "://"):
		return "", "", apperrors.NewConfiguration("unsupported database URL: "+databaseURL, nil)
	}
	return SQLite, SQLiteDSN(raw), nil
}

// SQLiteDSN returns the modernc DSN for a database file or ":memory:",
// with foreign keys enforced.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Init creates missing tables and indexes
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range SchemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewPersistence("schema", "failed to create schema", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the SQL flavour of the connection
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Tx is a transaction scope for batched upserts
type Tx struct {
	s  *Store
	tx *sqlx.Tx
}

// WithTx runs fn in a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistence("tx", "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Warn().Err(rbErr).Msg("rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = apperrors.NewPersistence("tx", "failed to commit transaction", cErr)
		}
	}()

	return fn(&Tx{s: s, tx: tx})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// dbError wraps a database failure, naming unique-key conflicts
func dbError(scope, action string, err error) error {
	if isUniqueViolation(err) {
		return apperrors.NewPersistence(scope, action+": unique key conflict", err)
	}
	return apperrors.NewPersistence(scope, action, err)
}

func inClause(query string, ids []int64) (string, []any, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return "", nil, fmt.Errorf("expand IN clause: %w", err)
	}
	return q, args, nil
}
