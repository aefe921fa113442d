// Package ledger owns the transfer records and the pending -> approved|rejected
// state machine. Submitting a transfer never touches balances; only approval
// moves money, and it does so as a single atomic unit.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no transfer exists with the given id.
	ErrNotFound = errors.New("transfer not found")
	// ErrAlreadyResolved indicates the transfer already reached a terminal
	// status, typically because a concurrent resolution won the race.
	ErrAlreadyResolved = errors.New("transfer already processed")
	// ErrInsufficientFunds occurs when the sender balance cannot cover the
	// transfer amount at approval time.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountNotFound surfaces a transfer referencing a missing account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount rejects non-positive amounts at the ledger boundary.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Transfer lifecycle statuses. Pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Transfer record types.
const (
	TypeTransfer       = "transfer"
	TypeDeposit        = "deposit"
	TypeInitialDeposit = "initial_deposit"
)

// Sentinel source accounts for deposits.
const (
	SystemAccount = "SYSTEM"
	AdminAccount  = "ADMIN"
)

// Transfer is a ledger record. Once resolved it is immutable.
type Transfer struct {
	ID              string
	From            string
	To              string
	AmountCents     int64
	Status          string
	Type            string
	RequestedBy     string
	ResolvedBy      string
	RejectionReason string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// SubmitInput captures a user transfer request.
type SubmitInput struct {
	From        string
	To          string
	AmountCents int64
	RequestedBy string
}

// Summary pairs the authoritative stored balance with informational
// aggregates derived from approved ledger records.
type Summary struct {
	AccountNumber      string
	BalanceCents       int64
	TotalSentCents     int64
	TotalReceivedCents int64
}

// Ledger defines the contract implemented by ledger backends.
type Ledger interface {
	// SubmitTransfer records a pending transfer without moving money.
	SubmitTransfer(ctx context.Context, input SubmitInput) (Transfer, error)
	// Deposit atomically credits an account and records an already-approved
	// deposit entry from the given sentinel source.
	Deposit(ctx context.Context, from, to string, amountCents int64, kind string) (int64, error)
	// Approve atomically re-checks the pending status, verifies funds, moves
	// money between both accounts, and flips the record to approved.
	Approve(ctx context.Context, id, approver string) (Transfer, error)
	// Reject flips a pending transfer to rejected. No balance movement.
	Reject(ctx context.Context, id, rejecter, reason string) (Transfer, error)
	// Pending lists unresolved transfers, oldest first.
	Pending(ctx context.Context) ([]Transfer, error)
	// History lists transfers touching the account, newest first.
	History(ctx context.Context, accountNumber string, limit int) ([]Transfer, error)
	// Summary returns the stored balance plus sent/received aggregates.
	Summary(ctx context.Context, accountNumber string) (Summary, error)
}

// BalanceStore is the balance access the in-memory ledger composes over.
type BalanceStore interface {
	Balance(ctx context.Context, accountNumber string) (int64, error)
	AdjustBalance(ctx context.Context, accountNumber string, delta int64) error
}
