package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/money"
)

// Handler exposes account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SignupRequest is the public account-opening payload.
type SignupRequest struct {
	FullName      string `json:"fullName"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
	Password      string `json:"password"`
}

// Input converts the request into a service-level command.
func (r SignupRequest) Input() SignupInput {
	return SignupInput{
		FullName:      r.FullName,
		IDNumber:      r.IDNumber,
		AccountNumber: r.AccountNumber,
		Username:      r.Name,
		Password:      r.Password,
	}
}

// Signup handles user self-registration.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	acc, err := h.service.Signup(c.UserContext(), req.Input())
	if err != nil {
		return translateError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "user created successfully",
		"id":      acc.ID,
	})
}

type accountView struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	IDNumber      string    `json:"idNumber"`
	AccountNumber string    `json:"accountNumber"`
	Name          string    `json:"name"`
	Balance       string    `json:"balance"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy,omitempty"`
}

// View serializes an account for API responses. Password hashes never leave
// the service boundary.
func View(acc Account) accountView {
	return accountView{
		ID:            acc.ID,
		FullName:      acc.FullName,
		IDNumber:      acc.IDNumber,
		AccountNumber: acc.AccountNumber,
		Name:          acc.Username,
		Balance:       money.Format(acc.BalanceCents),
		Role:          acc.Role,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
	}
}

// Users lists all accounts for the admin console.
func (h *Handler) Users(c *fiber.Ctx) error {
	accounts, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not fetch users")
	}
	views := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, View(acc))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": views})
}

func translateError(err error) error {
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrDuplicate):
		return fiber.NewError(http.StatusConflict, ErrDuplicate.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "account operation failed")
	}
}
