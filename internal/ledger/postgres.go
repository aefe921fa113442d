package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists transfer records in PostgreSQL. Approval runs in a
// single transaction with row locks on the transfer and both accounts so a
// crash or a concurrent resolution can never leave balances half-updated.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const transferColumns = `id, from_account, to_account, amount, status, type, requested_by, resolved_by, rejection_reason, created_at, resolved_at`

func (l *PostgresLedger) SubmitTransfer(ctx context.Context, input SubmitInput) (Transfer, error) {
	if input.AmountCents <= 0 {
		return Transfer{}, ErrInvalidAmount
	}

	t := Transfer{
		ID:          uuid.NewString(),
		From:        input.From,
		To:          input.To,
		AmountCents: input.AmountCents,
		Status:      StatusPending,
		Type:        TypeTransfer,
		RequestedBy: input.RequestedBy,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := l.db.Exec(ctx, `INSERT INTO transfers
        (id, from_account, to_account, amount, status, type, requested_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.From, t.To, t.AmountCents, t.Status, t.Type, t.RequestedBy, t.CreatedAt)
	if err != nil {
		return Transfer{}, err
	}
	return t, nil
}

func (l *PostgresLedger) Deposit(ctx context.Context, from, to string, amountCents int64, kind string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var newBalance int64
	err = tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1
        WHERE account_number = $2 RETURNING balance`, amountCents, to).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO transfers
        (id, from_account, to_account, amount, status, type, created_at, resolved_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		uuid.NewString(), from, to, amountCents, StatusApproved, kind, now)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (l *PostgresLedger) Approve(ctx context.Context, id, approver string) (Transfer, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return Transfer{}, ErrNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transfer{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	t, err := scanTransfer(tx.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, transferID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrNotFound
		}
		return Transfer{}, err
	}
	if t.Status != StatusPending {
		return Transfer{}, ErrAlreadyResolved
	}

	fromBalance, err := lockBalance(ctx, tx, t.From)
	if err != nil {
		return Transfer{}, err
	}
	if _, err := lockBalance(ctx, tx, t.To); err != nil {
		return Transfer{}, err
	}
	if fromBalance < t.AmountCents {
		return Transfer{}, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE account_number = $2`,
		t.AmountCents, t.From); err != nil {
		return Transfer{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE account_number = $2`,
		t.AmountCents, t.To); err != nil {
		return Transfer{}, err
	}

	now := time.Now().UTC()
	// Conditional on pending status: a racing resolution finds zero rows.
	cmd, err := tx.Exec(ctx, `UPDATE transfers SET status = $1, resolved_by = $2, resolved_at = $3
        WHERE id = $4 AND status = $5`,
		StatusApproved, approver, now, transferID, StatusPending)
	if err != nil {
		return Transfer{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Transfer{}, ErrAlreadyResolved
	}

	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, err
	}

	t.Status = StatusApproved
	t.ResolvedBy = approver
	t.ResolvedAt = &now
	return t, nil
}

func (l *PostgresLedger) Reject(ctx context.Context, id, rejecter, reason string) (Transfer, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return Transfer{}, ErrNotFound
	}

	now := time.Now().UTC()
	t, err := scanTransfer(l.db.QueryRow(ctx, `UPDATE transfers
        SET status = $1, resolved_by = $2, rejection_reason = $3, resolved_at = $4
        WHERE id = $5 AND status = $6
        RETURNING `+transferColumns,
		StatusRejected, rejecter, reason, now, transferID, StatusPending))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Transfer{}, err
	}

	// Distinguish unknown id from a transfer that raced to a terminal state.
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)`, transferID).Scan(&exists); err != nil {
		return Transfer{}, err
	}
	if !exists {
		return Transfer{}, ErrNotFound
	}
	return Transfer{}, ErrAlreadyResolved
}

func (l *PostgresLedger) Pending(ctx context.Context) ([]Transfer, error) {
	rows, err := l.db.Query(ctx, `SELECT `+transferColumns+` FROM transfers
        WHERE status = $1 ORDER BY created_at`, StatusPending)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

func (l *PostgresLedger) History(ctx context.Context, accountNumber string, limit int) ([]Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT `+transferColumns+` FROM transfers
        WHERE from_account = $1 OR to_account = $1
        ORDER BY created_at DESC LIMIT $2`, accountNumber, limit)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

func (l *PostgresLedger) Summary(ctx context.Context, accountNumber string) (Summary, error) {
	s := Summary{AccountNumber: accountNumber}

	err := l.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_number = $1`, accountNumber).
		Scan(&s.BalanceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, ErrAccountNotFound
		}
		return Summary{}, err
	}

	err = l.db.QueryRow(ctx, `SELECT
        COALESCE(SUM(amount) FILTER (WHERE from_account = $1), 0),
        COALESCE(SUM(amount) FILTER (WHERE to_account = $1), 0)
        FROM transfers
        WHERE status = $2 AND (from_account = $1 OR to_account = $1)`,
		accountNumber, StatusApproved).
		Scan(&s.TotalSentCents, &s.TotalReceivedCents)
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

func lockBalance(ctx context.Context, tx pgx.Tx, accountNumber string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_number = $1 FOR UPDATE`,
		accountNumber).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func scanTransfer(row pgx.Row) (Transfer, error) {
	var (
		id         uuid.UUID
		resolvedAt *time.Time
		t          Transfer
	)
	err := row.Scan(&id, &t.From, &t.To, &t.AmountCents, &t.Status, &t.Type,
		&t.RequestedBy, &t.ResolvedBy, &t.RejectionReason, &t.CreatedAt, &resolvedAt)
	if err != nil {
		return Transfer{}, err
	}
	t.ID = id.String()
	t.CreatedAt = t.CreatedAt.UTC()
	if resolvedAt != nil {
		utc := resolvedAt.UTC()
		t.ResolvedAt = &utc
	}
	return t, nil
}

func collectTransfers(rows pgx.Rows) ([]Transfer, error) {
	defer rows.Close()
	var transfers []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}
