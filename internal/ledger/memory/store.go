package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/ledger"
)

// Store is an in-memory ledger.Store. Every operation holds one mutex, and an
// Atomic unit works on a copy of the state that replaces the live state only
// when the unit succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: &state{accounts: make(map[string]ledger.Account)},
		now:   time.Now,
	}
}

type state struct {
	accounts     map[string]ledger.Account
	transactions []ledger.Transaction
	commissions  []ledger.Commission
	nextTxID     int64
}

func (st *state) clone() *state {
	c := &state{
		accounts:     make(map[string]ledger.Account, len(st.accounts)),
		transactions: append([]ledger.Transaction(nil), st.transactions...),
		commissions:  append([]ledger.Commission(nil), st.commissions...),
		nextTxID:     st.nextTxID,
	}
	for id, acc := range st.accounts {
		c.accounts[id] = acc
	}
	return c
}

// view runs the ledger.Accounts operations against one state. The owning
// Store's mutex is held by whoever created the view.
type view struct {
	st  *state
	now func() time.Time
}

func (v *view) getOrCreate(id string) ledger.Account {
	acc, ok := v.st.accounts[id]
	if !ok {
		acc = ledger.Account{
			ID:             id,
			Balance:        decimal.Zero,
			TotalSpent:     decimal.Zero,
			CommissionRate: ledger.DefaultCommissionRate,
			CreatedAt:      v.now(),
		}
		v.st.accounts[id] = acc
	}
	return acc
}

func (v *view) GetOrCreateAccount(ctx context.Context, id string) (*ledger.Account, error) {
	acc := v.getOrCreate(id)
	return &acc, nil
}

func (v *view) CreditAccount(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	acc := v.getOrCreate(id)
	acc.Balance = acc.Balance.Add(amount)
	v.st.accounts[id] = acc
	return acc.Balance, nil
}

func (v *view) DebitIfSufficient(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	acc, ok := v.st.accounts[id]
	if !ok || acc.Balance.LessThan(amount) {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	acc.Balance = acc.Balance.Sub(amount)
	v.st.accounts[id] = acc
	return acc.Balance, nil
}

func (v *view) AddTotalSpent(ctx context.Context, id string, amount decimal.Decimal) error {
	acc, ok := v.st.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acc.TotalSpent = acc.TotalSpent.Add(amount)
	v.st.accounts[id] = acc
	return nil
}

func (v *view) RecordTransaction(ctx context.Context, fromID, toID string, gross, fee, net decimal.Decimal) (*ledger.Transaction, error) {
	v.st.nextTxID++
	tx := ledger.Transaction{
		ID:          v.st.nextTxID,
		FromID:      fromID,
		ToID:        toID,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   net,
		CreatedAt:   v.now(),
	}
	v.st.transactions = append(v.st.transactions, tx)
	v.st.commissions = append(v.st.commissions, ledger.Commission{
		TransactionID: tx.ID,
		FromID:        fromID,
		ToID:          toID,
		FeeAmount:     fee,
	})
	return &tx, nil
}

func (s *Store) live() *view {
	return &view{st: s.state, now: s.now}
}

func (s *Store) GetOrCreateAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetOrCreateAccount(ctx, id)
}

func (s *Store) CreditAccount(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CreditAccount(ctx, id, amount)
}

func (s *Store) DebitIfSufficient(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DebitIfSufficient(ctx, id, amount)
}

func (s *Store) AddTotalSpent(ctx context.Context, id string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().AddTotalSpent(ctx, id, amount)
}

func (s *Store) RecordTransaction(ctx context.Context, fromID, toID string, gross, fee, net decimal.Decimal) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().RecordTransaction(ctx, fromID, toID, gross, fee, net)
}

func (s *Store) Atomic(ctx context.Context, fn func(ledger.Accounts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.state.clone()
	if err := fn(&view{st: staged, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// GetAccount returns an existing account without creating it.
func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.state.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &acc, nil
}

// SetCommissionRate changes the payout ratio used for future gifts.
func (s *Store) SetCommissionRate(ctx context.Context, id string, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.live().getOrCreate(id)
	acc.CommissionRate = rate
	s.state.accounts[id] = acc
	return nil
}

// ListTransactions returns the newest transactions touching accountID first.
func (s *Store) ListTransactions(ctx context.Context, accountID string, limit int) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Transaction
	for _, tx := range s.state.transactions {
		if tx.FromID == accountID || tx.ToID == accountID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Commissions returns every commission row in insertion order.
func (s *Store) Commissions() []ledger.Commission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Commission(nil), s.state.commissions...)
}

var _ ledger.Store = (*Store)(nil)
