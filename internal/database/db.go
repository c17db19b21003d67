package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/recapd/recapd/internal/models"
)

// Config holds the sqlite connection settings.
type Config struct {
	Path          string
	PoolSize      int
	BusyTimeoutMS int
}

// DB wraps the sqlite connection pool. It is the only shared mutable
// resource of the index; writes go through WithTx and snapshot reads
// through BeginSnapshot.
type DB struct {
	conn *sql.DB
}

// Querier is satisfied by both *sql.DB and *sql.Tx so repository methods
// can run inside or outside an explicit transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(config Config) (*DB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.PoolSize <= 0 {
		config.PoolSize = 10
	}
	if config.BusyTimeoutMS <= 0 {
		config.BusyTimeoutMS = 5000
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		config.Path, config.BusyTimeoutMS)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(config.PoolSize)
	conn.SetMaxIdleConns(config.PoolSize)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn inside a transaction and commits on success. Any error
// rolls the transaction back; no partial commit is ever observable.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// BeginSnapshot opens a transaction used for reads only. A deferred
// sqlite transaction reads from one consistent snapshot; the caller must
// Rollback when done. The sqlite driver rejects TxOptions.ReadOnly, so a
// plain transaction is used.
func (db *DB) BeginSnapshot(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	return tx, nil
}

const retryBackoff = 100 * time.Millisecond

// Retry runs fn and, if it fails with a transient store error, retries it
// once after a short backoff. All other errors surface immediately.
func Retry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, models.ErrTransient) {
		return err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

// classify maps sqlite errors onto the index error taxonomy: busy/locked
// become Transient, foreign-key failures mean the referenced parent is
// missing, the remaining constraint failures are Conflicts.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %v", models.ErrTransient, err)
	case sqlite3.ErrConstraint:
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("%w: referenced parent row is missing", models.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return err
}
