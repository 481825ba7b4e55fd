package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/susu3304/giftbot/internal/ledger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DB struct {
	pool *pgxpool.Pool
	q    querier
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, q: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Atomic runs fn inside a single database transaction. fn receives a DB bound
// to that transaction; returning an error rolls everything back.
func (db *DB) Atomic(ctx context.Context, fn func(ledger.Accounts) error) error {
	if _, inTx := db.q.(pgx.Tx); inTx {
		return fn(db)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&DB{pool: db.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RunMigrations creates the ledger, catalog and interaction log tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			discord_user_id TEXT PRIMARY KEY,
			balance NUMERIC(19,4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			total_spent NUMERIC(19,4) NOT NULL DEFAULT 0 CHECK (total_spent >= 0),
			commission_rate NUMERIC(7,6) NOT NULL DEFAULT 0.75 CHECK (commission_rate >= 0 AND commission_rate <= 1),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS gifts (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(19,4) NOT NULL CHECK (price > 0),
			image_url TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_gifts_name ON gifts(name);

		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			from_id TEXT NOT NULL REFERENCES members(discord_user_id),
			to_id TEXT NOT NULL REFERENCES members(discord_user_id),
			amount NUMERIC(19,4) NOT NULL,
			fee_amount NUMERIC(19,4) NOT NULL,
			net_amount NUMERIC(19,4) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (amount = fee_amount + net_amount)
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_from_id ON transactions(from_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_to_id ON transactions(to_id);

		CREATE TABLE IF NOT EXISTS commissions (
			id BIGSERIAL PRIMARY KEY,
			transaction_id BIGINT NOT NULL UNIQUE REFERENCES transactions(id),
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			fee_amount NUMERIC(19,4) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS interaction_logs (
			id UUID PRIMARY KEY,
			member_id TEXT NOT NULL,
			command TEXT NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

var _ ledger.Store = (*DB)(nil)
