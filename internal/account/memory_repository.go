package account

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory account store for tests and cache-less
// development runs. It additionally implements the balance access the
// in-memory ledger needs.
type MemoryRepository struct {
	mu       sync.RWMutex
	byNumber map[string]Account
	byName   map[string]string // username -> account number
}

// NewMemoryRepository builds an in-memory account store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byNumber: make(map[string]Account),
		byName:   make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNumber[acc.AccountNumber]; exists {
		return ErrDuplicate
	}
	if _, exists := r.byName[acc.Username]; exists {
		return ErrDuplicate
	}
	r.byNumber[acc.AccountNumber] = acc
	r.byName[acc.Username] = acc.AccountNumber
	return nil
}

func (r *MemoryRepository) FindByLogin(_ context.Context, username, accountNumber string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byNumber[accountNumber]
	if !ok || acc.Username != username {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *MemoryRepository) FindByAccountNumber(_ context.Context, accountNumber string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byNumber[accountNumber]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := make([]Account, 0, len(r.byNumber))
	for _, acc := range r.byNumber {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) })
	return accounts, nil
}

// Balance returns the stored balance for an account number.
func (r *MemoryRepository) Balance(_ context.Context, accountNumber string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byNumber[accountNumber]
	if !ok {
		return 0, ErrNotFound
	}
	return acc.BalanceCents, nil
}

// AdjustBalance applies a signed delta to the stored balance.
func (r *MemoryRepository) AdjustBalance(_ context.Context, accountNumber string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.byNumber[accountNumber]
	if !ok {
		return ErrNotFound
	}
	acc.BalanceCents += delta
	r.byNumber[accountNumber] = acc
	return nil
}
