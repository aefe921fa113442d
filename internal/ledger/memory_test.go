package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newTestLedger(t *testing.T) (Ledger, *MemoryBalances) {
	t.Helper()
	balances := NewMemoryBalances()
	balances.Seed("1111111111", 10_000)
	balances.Seed("2222222222", 1_000)
	return NewMemory(balances), balances
}

func TestApproveMovesMoneyExactlyOnce(t *testing.T) {
	l, balances := newTestLedger(t)
	ctx := context.Background()

	submitted, err := l.SubmitTransfer(ctx, SubmitInput{
		From: "1111111111", To: "2222222222", AmountCents: 4_000, RequestedBy: "alice",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != StatusPending {
		t.Fatalf("expected pending, got %s", submitted.Status)
	}

	// Submission must not touch balances.
	if bal, _ := balances.Balance(ctx, "1111111111"); bal != 10_000 {
		t.Fatalf("sender balance changed on submit: %d", bal)
	}

	approved, err := l.Approve(ctx, submitted.ID, "admin")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.ResolvedBy != "admin" || approved.ResolvedAt == nil {
		t.Fatalf("bad resolution stamp: %+v", approved)
	}

	from, _ := balances.Balance(ctx, "1111111111")
	to, _ := balances.Balance(ctx, "2222222222")
	if from != 6_000 || to != 5_000 {
		t.Fatalf("expected 6000/5000, got %d/%d", from, to)
	}
	if from+to != 11_000 {
		t.Fatalf("money not conserved: total %d", from+to)
	}

	// Terminal status: a second resolution must fail without moving money.
	if _, err := l.Approve(ctx, submitted.ID, "admin"); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if _, err := l.Reject(ctx, submitted.ID, "admin", ""); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved on reject, got %v", err)
	}
	if from, _ := balances.Balance(ctx, "1111111111"); from != 6_000 {
		t.Fatalf("balance mutated by failed resolution: %d", from)
	}
}

func TestApproveInsufficientFundsMutatesNothing(t *testing.T) {
	balances := NewMemoryBalances()
	balances.Seed("1111111111", 2_000)
	balances.Seed("2222222222", 1_000)
	l := NewMemory(balances)
	ctx := context.Background()

	submitted, err := l.SubmitTransfer(ctx, SubmitInput{
		From: "1111111111", To: "2222222222", AmountCents: 4_000, RequestedBy: "alice",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := l.Approve(ctx, submitted.ID, "admin"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	from, _ := balances.Balance(ctx, "1111111111")
	to, _ := balances.Balance(ctx, "2222222222")
	if from != 2_000 || to != 1_000 {
		t.Fatalf("balances mutated: %d/%d", from, to)
	}

	// The transfer stays pending; it can only leave pending by explicit resolution.
	pending, _ := l.Pending(ctx)
	if len(pending) != 1 || pending[0].ID != submitted.ID {
		t.Fatalf("expected transfer still pending, got %+v", pending)
	}
}

func TestApproveUnknownTransfer(t *testing.T) {
	l, _ := newTestLedger(t)
	if _, err := l.Approve(context.Background(), "no-such-id", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveMissingAccountSurfaced(t *testing.T) {
	balances := NewMemoryBalances()
	balances.Seed("1111111111", 10_000)
	l := NewMemory(balances)
	ctx := context.Background()

	submitted, _ := l.SubmitTransfer(ctx, SubmitInput{
		From: "1111111111", To: "3333333333", AmountCents: 1_000, RequestedBy: "alice",
	})
	if _, err := l.Approve(ctx, submitted.ID, "admin"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if bal, _ := balances.Balance(ctx, "1111111111"); bal != 10_000 {
		t.Fatalf("sender balance mutated: %d", bal)
	}
}

func TestRejectIsANoOpOnMoney(t *testing.T) {
	l, balances := newTestLedger(t)
	ctx := context.Background()

	submitted, _ := l.SubmitTransfer(ctx, SubmitInput{
		From: "1111111111", To: "2222222222", AmountCents: 4_000, RequestedBy: "alice",
	})

	rejected, err := l.Reject(ctx, submitted.ID, "admin", "suspicious amount")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RejectionReason != "suspicious amount" {
		t.Fatalf("bad rejection: %+v", rejected)
	}

	from, _ := balances.Balance(ctx, "1111111111")
	to, _ := balances.Balance(ctx, "2222222222")
	if from != 10_000 || to != 1_000 {
		t.Fatalf("reject moved money: %d/%d", from, to)
	}

	if _, err := l.Approve(ctx, submitted.ID, "admin"); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved after reject, got %v", err)
	}
}

func TestConcurrentApprovalExactlyOneWins(t *testing.T) {
	l, balances := newTestLedger(t)
	ctx := context.Background()

	submitted, _ := l.SubmitTransfer(ctx, SubmitInput{
		From: "1111111111", To: "2222222222", AmountCents: 4_000, RequestedBy: "alice",
	})

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Approve(ctx, submitted.ID, "admin")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyResolved):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != attempts-1 {
		t.Fatalf("expected exactly one winner, got %d wins / %d losses", wins, losses)
	}

	from, _ := balances.Balance(ctx, "1111111111")
	to, _ := balances.Balance(ctx, "2222222222")
	if from != 6_000 || to != 5_000 {
		t.Fatalf("double-processed balances: %d/%d", from, to)
	}
}

func TestDepositCreditsAndLogs(t *testing.T) {
	l, balances := newTestLedger(t)
	ctx := context.Background()

	newBalance, err := l.Deposit(ctx, SystemAccount, "2222222222", 2_500, TypeDeposit)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if newBalance != 3_500 {
		t.Fatalf("expected balance 3500, got %d", newBalance)
	}
	if bal, _ := balances.Balance(ctx, "2222222222"); bal != 3_500 {
		t.Fatalf("stored balance %d", bal)
	}

	history, _ := l.History(ctx, "2222222222", 10)
	if len(history) != 1 {
		t.Fatalf("expected one record, got %d", len(history))
	}
	entry := history[0]
	if entry.From != SystemAccount || entry.Type != TypeDeposit || entry.Status != StatusApproved {
		t.Fatalf("bad deposit record: %+v", entry)
	}

	if _, err := l.Deposit(ctx, SystemAccount, "3333333333", 100, TypeDeposit); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSubmitRejectsInvalidAmount(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -100} {
		if _, err := l.SubmitTransfer(ctx, SubmitInput{From: "1111111111", To: "2222222222", AmountCents: amount}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	var last Transfer
	for i := 0; i < 5; i++ {
		last, _ = l.SubmitTransfer(ctx, SubmitInput{
			From: "1111111111", To: "2222222222", AmountCents: 100, RequestedBy: "alice",
		})
	}

	history, err := l.History(ctx, "1111111111", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	if history[0].ID != last.ID {
		t.Fatalf("expected newest first")
	}
}

func TestSummaryAggregatesApprovedOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	approvedTx, _ := l.SubmitTransfer(ctx, SubmitInput{From: "1111111111", To: "2222222222", AmountCents: 4_000, RequestedBy: "alice"})
	rejectedTx, _ := l.SubmitTransfer(ctx, SubmitInput{From: "1111111111", To: "2222222222", AmountCents: 1_000, RequestedBy: "alice"})
	pendingTx, _ := l.SubmitTransfer(ctx, SubmitInput{From: "1111111111", To: "2222222222", AmountCents: 500, RequestedBy: "alice"})
	_ = pendingTx

	if _, err := l.Approve(ctx, approvedTx.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := l.Reject(ctx, rejectedTx.ID, "admin", "nope"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := l.Deposit(ctx, SystemAccount, "1111111111", 2_000, TypeDeposit); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	s, err := l.Summary(ctx, "1111111111")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalSentCents != 4_000 {
		t.Fatalf("totalSent = %d, want 4000", s.TotalSentCents)
	}
	if s.TotalReceivedCents != 2_000 {
		t.Fatalf("totalReceived = %d, want 2000", s.TotalReceivedCents)
	}
	// 10000 - 4000 + 2000
	if s.BalanceCents != 8_000 {
		t.Fatalf("balance = %d, want 8000", s.BalanceCents)
	}

	if _, err := l.Summary(ctx, "0000000000"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
