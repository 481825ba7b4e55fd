package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for every amount.
const MoneyScale = 4

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrSelfGift          = errors.New("cannot gift to yourself")
	ErrGiftNotFound      = errors.New("gift not found")
	ErrNonPositiveAmount = errors.New("total amount must be greater than 0")
	// ErrInsufficientFunds also covers debits against an account that does not exist.
	ErrInsufficientFunds = errors.New("insufficient balance or unknown account")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAmountTooLarge    = errors.New("amount exceeds the largest storable value")
)

// MaxAmount is the largest value a NUMERIC(19,4) column holds.
var MaxAmount = decimal.RequireFromString("999999999999999.9999")

// DefaultCommissionRate is the payout ratio given to new accounts.
var DefaultCommissionRate = decimal.RequireFromString("0.75")

type Account struct {
	ID             string          `json:"id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Transaction struct {
	ID          int64           `json:"id"`
	FromID      string          `json:"from_id"`
	ToID        string          `json:"to_id"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Commission struct {
	TransactionID int64           `json:"transaction_id"`
	FromID        string          `json:"from_id"`
	ToID          string          `json:"to_id"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
}

// Accounts is the set of balance operations. Implementations must make
// DebitIfSufficient a single check-and-decrement.
type Accounts interface {
	GetOrCreateAccount(ctx context.Context, id string) (*Account, error)
	CreditAccount(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	DebitIfSufficient(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	AddTotalSpent(ctx context.Context, id string, amount decimal.Decimal) error
	RecordTransaction(ctx context.Context, fromID, toID string, gross, fee, net decimal.Decimal) (*Transaction, error)
}

// Store is a ledger store that can run several Accounts operations as one
// all-or-nothing unit. If fn returns an error nothing it did is kept.
type Store interface {
	Accounts
	Atomic(ctx context.Context, fn func(Accounts) error) error
}
