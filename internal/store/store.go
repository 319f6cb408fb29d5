package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams let the submitter and confirmer processes share one
// database file: WAL for concurrent readers, a busy timeout for the
// writer lock and BEGIN IMMEDIATE so a transaction takes the lock up front.
const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Options struct {
	Driver string
	DSN    string
}

type Store struct {
	db      DBTX
	dialect dialect
	now     func() time.Time
}

func NewStore(ctx context.Context, opts Options, migrationsFS fs.FS) (*Store, error) {
	d, err := parseDialect(opts.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, opts.Driver)
	}

	dsn := opts.DSN
	if d == dialectSQLite {
		if dsn, err = prepareSQLite(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("can not open database : %w", err)
	}
	if d == dialectSQLite {
		// one writer per process; cross-process contention is handled by the busy timeout
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("can not connect with database : %w", err)
	}
	if err := runMigrations(db, d, migrationsFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database : %w", err)
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

func prepareSQLite(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("sqlite database path is empty")
	}

	path := dsn
	if i := strings.IndexRune(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")

	if path != ":memory:" {
		dbDir := filepath.Dir(path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return "", fmt.Errorf("can not create database directory %s: %w", dbDir, err)
		}
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams, nil
	}
	return dsn + "?" + sqliteParams, nil
}

// ExecTx runs fn inside one database transaction. Calling it on a store
// that is already inside a transaction joins the outer one.
func (s *Store) ExecTx(ctx context.Context, fn func(Repository) error) error {
	return s.withTx(ctx, func(txStore *Store) error {
		return fn(txStore)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(s)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: tx, dialect: s.dialect, now: s.now}

	err = fn(txStore)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) Ping(ctx context.Context) error {
	if db, ok := s.db.(*sql.DB); ok {
		return db.PingContext(ctx)
	}
	return nil
}

func (s *Store) Close() error {
	if db, ok := s.db.(*sql.DB); ok {
		return db.Close()
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) unixNow() int64 {
	return s.now().Unix()
}

func runMigrations(db *sql.DB, d dialect, migrationsFS fs.FS) error {
	var (
		driver database.Driver
		err    error
	)

	switch d {
	case dialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to set up migrate driver : %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver : %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs",
		sourceDriver,
		string(d),
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to set up migrate instance : %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migration(up) : %w", err)
	}

	return nil
}

func toStoredAmount(amount uint64) (int64, error) {
	if amount > uint64(1<<63-1) {
		return 0, fmt.Errorf("%w: %d", ErrAmountOutOfRange, amount)
	}
	return int64(amount), nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
