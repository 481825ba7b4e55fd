package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/catalog"
)

// Sign selects the direction of an admin balance adjustment.
type Sign string

const (
	Credit Sign = "+"
	Debit  Sign = "-"
)

// GiftCatalog is the read-only price list the engine resolves gifts against.
type GiftCatalog interface {
	FindExact(ctx context.Context, name string) (*catalog.Gift, error)
	FindSuggestions(ctx context.Context, normalized string, limit int) ([]string, error)
}

// GiftNotFoundError is returned by GiftTransfer for unknown gift names.
type GiftNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *GiftNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("gift %q not found", e.Name)
	}
	return fmt.Sprintf("gift %q not found (did you mean: %s)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *GiftNotFoundError) Is(target error) bool { return target == ErrGiftNotFound }

type AdjustResult struct {
	AccountID string
	Sign      Sign
	Amount    decimal.Decimal
	Balance   decimal.Decimal
}

type GiftRequest struct {
	GiverID    string
	ReceiverID string
	GiftName   string
	Quantity   int64
}

type GiftResult struct {
	TransactionID int64
	GiverID       string
	ReceiverID    string
	GiftName      string
	ImageURL      string
	UnitPrice     decimal.Decimal
	Quantity      int64
	Gross         decimal.Decimal
	Fee           decimal.Decimal
	Net           decimal.Decimal
	ReceiverRate  decimal.Decimal
	CreatedAt     time.Time
}

type Engine struct {
	store Store
	gifts GiftCatalog
}

func NewEngine(store Store, gifts GiftCatalog) *Engine {
	return &Engine{store: store, gifts: gifts}
}

// AdminAdjust credits or debits a member's balance. The caller has already
// checked that the actor is allowed to do this.
func (e *Engine) AdminAdjust(ctx context.Context, targetID string, sign Sign, amount decimal.Decimal) (*AdjustResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}
	if _, err := e.store.GetOrCreateAccount(ctx, targetID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	var (
		balance decimal.Decimal
		err     error
	)
	switch sign {
	case Credit:
		balance, err = e.store.CreditAccount(ctx, targetID, amount)
	case Debit:
		balance, err = e.store.DebitIfSufficient(ctx, targetID, amount)
	default:
		return nil, fmt.Errorf("unknown sign %q", sign)
	}
	if err != nil {
		return nil, err
	}
	return &AdjustResult{AccountID: targetID, Sign: sign, Amount: amount, Balance: balance}, nil
}

// GiftTransfer moves the gross price of quantity gifts from the giver, pays
// the receiver's share and keeps the rest as platform commission.
func (e *Engine) GiftTransfer(ctx context.Context, req GiftRequest) (*GiftResult, error) {
	if req.GiverID == req.ReceiverID {
		return nil, ErrSelfGift
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	gift, err := e.gifts.FindExact(ctx, req.GiftName)
	if errors.Is(err, catalog.ErrNotFound) {
		suggestions, serr := e.gifts.FindSuggestions(ctx, catalog.Normalize(req.GiftName), catalog.DefaultSuggestionLimit)
		if serr != nil {
			return nil, fmt.Errorf("gift suggestions: %w", serr)
		}
		return nil, &GiftNotFoundError{Name: req.GiftName, Suggestions: suggestions}
	}
	if err != nil {
		return nil, fmt.Errorf("find gift: %w", err)
	}

	qty := decimal.NewFromInt(req.Quantity)
	gross := gift.UnitPrice.Mul(qty)
	if !gross.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if gross.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}

	res := &GiftResult{
		GiverID:    req.GiverID,
		ReceiverID: req.ReceiverID,
		GiftName:   gift.Name,
		ImageURL:   gift.ImageURL,
		UnitPrice:  gift.UnitPrice,
		Quantity:   req.Quantity,
		Gross:      gross,
	}

	err = e.store.Atomic(ctx, func(tx Accounts) error {
		// Ensure in id order so concurrent transfers lock rows the same way.
		first, second := req.GiverID, req.ReceiverID
		if second < first {
			first, second = second, first
		}
		accounts := make(map[string]*Account, 2)
		for _, id := range []string{first, second} {
			acc, err := tx.GetOrCreateAccount(ctx, id)
			if err != nil {
				return fmt.Errorf("ensure account %s: %w", id, err)
			}
			accounts[id] = acc
		}

		rate := accounts[req.ReceiverID].CommissionRate
		fee, net := SplitCommission(gross, rate)

		if _, err := tx.DebitIfSufficient(ctx, req.GiverID, gross); err != nil {
			return err
		}
		// A payout ratio of 0 leaves nothing to credit; the gift still counts.
		if net.IsPositive() {
			if _, err := tx.CreditAccount(ctx, req.ReceiverID, net); err != nil {
				return fmt.Errorf("credit receiver: %w", err)
			}
		}
		if err := tx.AddTotalSpent(ctx, req.GiverID, gross); err != nil {
			return fmt.Errorf("add total spent: %w", err)
		}
		txRow, err := tx.RecordTransaction(ctx, req.GiverID, req.ReceiverID, gross, fee, net)
		if err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}

		res.TransactionID = txRow.ID
		res.CreatedAt = txRow.CreatedAt
		res.ReceiverRate = rate
		res.Fee = fee
		res.Net = net
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SplitCommission splits gross into the platform fee and the receiver's net
// share for a payout ratio. fee is rounded to MoneyScale and net is derived
// from it, so fee+net == gross always holds.
func SplitCommission(gross, payoutRatio decimal.Decimal) (fee, net decimal.Decimal) {
	feeRate := decimal.NewFromInt(1).Sub(payoutRatio)
	fee = gross.Mul(feeRate).Round(MoneyScale)
	net = gross.Sub(fee)
	return fee, net
}
