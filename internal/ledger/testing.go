package ledger

import (
	"context"
	"sync"
)

// MemoryBalances is a minimal BalanceStore used when exercising the in-memory
// ledger without the full account repository.
type MemoryBalances struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryBalances builds an empty balance store.
func NewMemoryBalances() *MemoryBalances {
	return &MemoryBalances{balances: make(map[string]int64)}
}

// Seed creates the account if needed and sets its balance.
func (b *MemoryBalances) Seed(accountNumber string, cents int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[accountNumber] = cents
}

func (b *MemoryBalances) Balance(_ context.Context, accountNumber string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, ok := b.balances[accountNumber]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (b *MemoryBalances) AdjustBalance(_ context.Context, accountNumber string, delta int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.balances[accountNumber]; !ok {
		return ErrAccountNotFound
	}
	b.balances[accountNumber] += delta
	return nil
}
