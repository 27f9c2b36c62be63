// Package db provides PostgreSQL access for the Sparkify warehouse.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrConnection marks failures not attributable to a single statement, such
// as a dropped connection, a cancelled context or an aborted transaction.
// Callers should stop the run.
var ErrConnection = errors.New("database connection failure")

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger logs every statement at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w: %w", ErrConnection, err)
	}

	db := &DB{pool: pool, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Begin starts the transaction that collects one input file's writes.
func (db *DB) Begin(ctx context.Context) (Writer, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w: %w", ErrConnection, err)
	}
	return newTx(tx, db.logger), nil
}
