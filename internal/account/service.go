package account

import (
	"context"
	"errors"
	"regexp"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown users and wrong
// passwords so login failures cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError carries a field-specific message suitable for a 400 response.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

var (
	fullNamePattern      = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	idNumberPattern      = regexp.MustCompile(`^\d{9}$`)
	accountNumberPattern = regexp.MustCompile(`^\d{8,12}$`)
	usernamePattern      = regexp.MustCompile(`^\w{3,15}$`)
)

// Service manages account lifecycle: signup, admin provisioning, and
// credential verification.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SignupInput captures the fields required to open an account.
type SignupInput struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	Password      string
}

// Signup validates the input, hashes the password, and creates a user-role
// account with a zero balance.
func (s *Service) Signup(ctx context.Context, input SignupInput) (Account, error) {
	return s.create(ctx, input, RoleUser, "")
}

// ProvisionInput is an admin-supplied account. Role defaults to user.
type ProvisionInput struct {
	SignupInput
	Role      string
	CreatedBy string
}

// Provision creates an account on behalf of an admin. Any initial balance is
// applied separately through the ledger so it is always logged as a deposit.
func (s *Service) Provision(ctx context.Context, input ProvisionInput) (Account, error) {
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return Account{}, ValidationError{Message: "role must be user or admin"}
	}
	return s.create(ctx, input.SignupInput, role, input.CreatedBy)
}

func (s *Service) create(ctx context.Context, input SignupInput, role, createdBy string) (Account, error) {
	if err := validate(input); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	acc := Account{
		ID:            uuid.NewString(),
		FullName:      input.FullName,
		IDNumber:      input.IDNumber,
		AccountNumber: input.AccountNumber,
		Username:      input.Username,
		PasswordHash:  hash,
		BalanceCents:  0,
		Role:          role,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     createdBy,
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Authenticate verifies the login triple against the stored hash. Unknown
// user and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, accountNumber, password string) (Account, error) {
	acc, err := s.repo.FindByLogin(ctx, username, accountNumber)
	if err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// Get fetches an account by account number.
func (s *Service) Get(ctx context.Context, accountNumber string) (Account, error) {
	return s.repo.FindByAccountNumber(ctx, accountNumber)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// EnsureAdmin idempotently provisions the bootstrap admin account from
// configuration. A blank username disables bootstrapping.
func (s *Service) EnsureAdmin(ctx context.Context, username, accountNumber, password string) error {
	if username == "" || accountNumber == "" || password == "" {
		return nil
	}
	if _, err := s.repo.FindByLogin(ctx, username, accountNumber); err == nil {
		return nil
	}
	_, err := s.Provision(ctx, ProvisionInput{
		SignupInput: SignupInput{
			FullName:      "System Administrator",
			IDNumber:      "000000000",
			AccountNumber: accountNumber,
			Username:      username,
			Password:      password,
		},
		Role:      RoleAdmin,
		CreatedBy: "system",
	})
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

func validate(input SignupInput) error {
	if input.FullName == "" || input.IDNumber == "" || input.AccountNumber == "" ||
		input.Username == "" || input.Password == "" {
		return ValidationError{Message: "all fields are required"}
	}
	if !fullNamePattern.MatchString(input.FullName) {
		return ValidationError{Message: "full name must only contain letters and spaces"}
	}
	if !idNumberPattern.MatchString(input.IDNumber) {
		return ValidationError{Message: "ID number must be exactly 9 digits"}
	}
	if !accountNumberPattern.MatchString(input.AccountNumber) {
		return ValidationError{Message: "account number must be 8-12 digits"}
	}
	if !usernamePattern.MatchString(input.Username) {
		return ValidationError{Message: "username must be 3-15 characters, letters/numbers/underscores only"}
	}
	if err := validatePassword(input.Password); err != nil {
		return err
	}
	return nil
}

func validatePassword(password string) error {
	weak := ValidationError{Message: "password must be at least 8 characters, with uppercase, lowercase, and number"}
	if len(password) < 8 {
		return weak
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			return weak
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return weak
	}
	return nil
}
