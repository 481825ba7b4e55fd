package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/ledger"
)

// Amounts are sent as text so NUMERIC columns parse them without going through
// a binary float encoding.

const memberColumns = `discord_user_id, balance, total_spent, commission_rate, created_at`

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var acc ledger.Account
	if err := row.Scan(&acc.ID, &acc.Balance, &acc.TotalSpent, &acc.CommissionRate, &acc.CreatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetOrCreateAccount upserts the member row. The no-op update takes the row
// lock when called inside Atomic.
func (db *DB) GetOrCreateAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return scanAccount(db.q.QueryRow(ctx,
		`INSERT INTO members (discord_user_id) VALUES ($1)
		 ON CONFLICT (discord_user_id) DO UPDATE SET discord_user_id = EXCLUDED.discord_user_id
		 RETURNING `+memberColumns,
		id,
	))
}

func (db *DB) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	acc, err := scanAccount(db.q.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE discord_user_id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	return acc, err
}

func (db *DB) CreditAccount(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	var balance decimal.Decimal
	err := db.q.QueryRow(ctx,
		`INSERT INTO members (discord_user_id, balance) VALUES ($1, $2::numeric)
		 ON CONFLICT (discord_user_id) DO UPDATE SET balance = members.balance + EXCLUDED.balance
		 RETURNING balance`,
		id, amount.String(),
	).Scan(&balance)
	return balance, err
}

// DebitIfSufficient decrements the balance only when it covers amount. The
// check and the update are one statement, so concurrent debits cannot both pass.
func (db *DB) DebitIfSufficient(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	var balance decimal.Decimal
	err := db.q.QueryRow(ctx,
		`UPDATE members SET balance = balance - $2::numeric
		 WHERE discord_user_id = $1 AND balance >= $2::numeric
		 RETURNING balance`,
		id, amount.String(),
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	return balance, err
}

func (db *DB) AddTotalSpent(ctx context.Context, id string, amount decimal.Decimal) error {
	ct, err := db.q.Exec(ctx,
		`UPDATE members SET total_spent = total_spent + $2::numeric WHERE discord_user_id = $1`,
		id, amount.String(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

// RecordTransaction inserts the transaction and its commission row. Call it
// inside Atomic together with the balance changes it describes.
func (db *DB) RecordTransaction(ctx context.Context, fromID, toID string, gross, fee, net decimal.Decimal) (*ledger.Transaction, error) {
	tx := ledger.Transaction{
		FromID:      fromID,
		ToID:        toID,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   net,
	}
	if err := db.q.QueryRow(ctx,
		`INSERT INTO transactions (from_id, to_id, amount, fee_amount, net_amount)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric)
		 RETURNING id, created_at`,
		fromID, toID, gross.String(), fee.String(), net.String(),
	).Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := db.q.Exec(ctx,
		`INSERT INTO commissions (transaction_id, from_id, to_id, fee_amount)
		 VALUES ($1, $2, $3, $4::numeric)`,
		tx.ID, fromID, toID, fee.String(),
	); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns the newest transactions touching accountID first.
func (db *DB) ListTransactions(ctx context.Context, accountID string, limit int) ([]ledger.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, from_id, to_id, amount, fee_amount, net_amount, created_at
		 FROM transactions
		 WHERE from_id = $1 OR to_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		if err := rows.Scan(&tx.ID, &tx.FromID, &tx.ToID, &tx.GrossAmount, &tx.FeeAmount, &tx.NetAmount, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
