package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLedger struct {
	mu        sync.Mutex
	balances  BalanceStore
	transfers []*Transfer
	byID      map[string]*Transfer
}

// NewMemory creates a concurrency-safe in-memory ledger over the provided
// balance store. Useful for unit tests and database-less development runs.
func NewMemory(balances BalanceStore) Ledger {
	return &memoryLedger{
		balances: balances,
		byID:     make(map[string]*Transfer),
	}
}

func (l *memoryLedger) SubmitTransfer(_ context.Context, input SubmitInput) (Transfer, error) {
	if input.AmountCents <= 0 {
		return Transfer{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := &Transfer{
		ID:          uuid.NewString(),
		From:        input.From,
		To:          input.To,
		AmountCents: input.AmountCents,
		Status:      StatusPending,
		Type:        TypeTransfer,
		RequestedBy: input.RequestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	l.transfers = append(l.transfers, t)
	l.byID[t.ID] = t
	return *t, nil
}

func (l *memoryLedger) Deposit(ctx context.Context, from, to string, amountCents int64, kind string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.balances.Balance(ctx, to); err != nil {
		return 0, ErrAccountNotFound
	}
	if err := l.balances.AdjustBalance(ctx, to, amountCents); err != nil {
		return 0, ErrAccountNotFound
	}

	now := time.Now().UTC()
	t := &Transfer{
		ID:          uuid.NewString(),
		From:        from,
		To:          to,
		AmountCents: amountCents,
		Status:      StatusApproved,
		Type:        kind,
		CreatedAt:   now,
		ResolvedAt:  &now,
	}
	l.transfers = append(l.transfers, t)
	l.byID[t.ID] = t

	return l.balances.Balance(ctx, to)
}

func (l *memoryLedger) Approve(ctx context.Context, id, approver string) (Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.byID[id]
	if !ok {
		return Transfer{}, ErrNotFound
	}
	if t.Status != StatusPending {
		return Transfer{}, ErrAlreadyResolved
	}

	fromBalance, err := l.balances.Balance(ctx, t.From)
	if err != nil {
		return Transfer{}, ErrAccountNotFound
	}
	if _, err := l.balances.Balance(ctx, t.To); err != nil {
		return Transfer{}, ErrAccountNotFound
	}
	if fromBalance < t.AmountCents {
		return Transfer{}, ErrInsufficientFunds
	}

	if err := l.balances.AdjustBalance(ctx, t.From, -t.AmountCents); err != nil {
		return Transfer{}, err
	}
	if err := l.balances.AdjustBalance(ctx, t.To, t.AmountCents); err != nil {
		return Transfer{}, err
	}

	now := time.Now().UTC()
	t.Status = StatusApproved
	t.ResolvedBy = approver
	t.ResolvedAt = &now
	return *t, nil
}

func (l *memoryLedger) Reject(_ context.Context, id, rejecter, reason string) (Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.byID[id]
	if !ok {
		return Transfer{}, ErrNotFound
	}
	if t.Status != StatusPending {
		return Transfer{}, ErrAlreadyResolved
	}

	now := time.Now().UTC()
	t.Status = StatusRejected
	t.ResolvedBy = rejecter
	t.RejectionReason = reason
	t.ResolvedAt = &now
	return *t, nil
}

func (l *memoryLedger) Pending(_ context.Context) ([]Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pending []Transfer
	for _, t := range l.transfers {
		if t.Status == StatusPending {
			pending = append(pending, *t)
		}
	}
	return pending, nil
}

func (l *memoryLedger) History(_ context.Context, accountNumber string, limit int) ([]Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var history []Transfer
	for i := len(l.transfers) - 1; i >= 0 && (limit <= 0 || len(history) < limit); i-- {
		t := l.transfers[i]
		if t.From == accountNumber || t.To == accountNumber {
			history = append(history, *t)
		}
	}
	return history, nil
}

func (l *memoryLedger) Summary(ctx context.Context, accountNumber string) (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.balances.Balance(ctx, accountNumber)
	if err != nil {
		return Summary{}, ErrAccountNotFound
	}

	s := Summary{AccountNumber: accountNumber, BalanceCents: balance}
	for _, t := range l.transfers {
		if t.Status != StatusApproved {
			continue
		}
		if t.From == accountNumber {
			s.TotalSentCents += t.AmountCents
		}
		if t.To == accountNumber {
			s.TotalReceivedCents += t.AmountCents
		}
	}
	return s, nil
}
