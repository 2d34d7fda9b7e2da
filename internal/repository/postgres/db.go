package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const defaultMaxOpenConns = 10

// DB wraps the pool with a semaphore bounding concurrent writes.
type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// NewDB opens the pool described by cfg.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	return Open(cfg.DSN(), cfg.MaxOpenConns)
}

// Open connects to dsn with the lib/pq driver.
func Open(dsn string, maxOpen int) (*DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return Wrap(db, maxOpen), nil
}

// Wrap configures an existing connection pool.
func Wrap(db *sqlx.DB, maxOpen int) *DB {
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen/2 + 1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(int64(maxOpen)),
	}
}

func (db *DB) acquire(ctx context.Context) (func(), error) {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("could not acquire semaphore: %w", err)
	}
	return func() { db.sem.Release(1) }, nil
}

// exec runs a single write statement under the semaphore.
func (db *DB) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	release, err := db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return db.ExecContext(ctx, query, args...)
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
