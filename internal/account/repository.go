package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate indicates the username or account number is already in use.
	ErrDuplicate = errors.New("username or account number already in use")
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	FindByLogin(ctx context.Context, username, accountNumber string) (Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account, translating unique violations to ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	id, err := uuid.Parse(acc.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts
        (id, full_name, id_number, account_number, username, password_hash, balance, role, created_at, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, acc.FullName, acc.IDNumber, acc.AccountNumber, acc.Username,
		string(acc.PasswordHash), acc.BalanceCents, acc.Role, acc.CreatedAt.UTC(), acc.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

const accountColumns = `id, full_name, id_number, account_number, username, password_hash, balance, role, created_at, created_by`

// FindByLogin fetches an account by the (username, account number) pair used at login.
func (r *PostgresRepository) FindByLogin(ctx context.Context, username, accountNumber string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1 AND account_number = $2`,
		username, accountNumber)
	return scanAccount(row)
}

// FindByAccountNumber fetches an account by account number.
func (r *PostgresRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
	return scanAccount(row)
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		hash      string
		createdAt time.Time
		acc       Account
	)
	err := row.Scan(&id, &acc.FullName, &acc.IDNumber, &acc.AccountNumber, &acc.Username,
		&hash, &acc.BalanceCents, &acc.Role, &createdAt, &acc.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acc.ID = id.String()
	acc.PasswordHash = []byte(hash)
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}
