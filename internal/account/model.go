package account

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account represents a registered bank account holder. BalanceCents is the
// authoritative spendable balance; ledger aggregates are informational.
type Account struct {
	ID            string
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	PasswordHash  []byte
	BalanceCents  int64
	Role          string
	CreatedAt     time.Time
	CreatedBy     string
}
