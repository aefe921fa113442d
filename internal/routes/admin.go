package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/account"
	"github.com/vaultbank/vaultbank/internal/ledger"
	"github.com/vaultbank/vaultbank/internal/middleware"
	"github.com/vaultbank/vaultbank/internal/money"
)

// RegisterAdminRoutes wires the admin console: account provisioning, the user
// list, and the transfer approval queue.
func RegisterAdminRoutes(app *fiber.App, accounts *account.Service, ledgerStore ledger.Ledger, accounth *account.Handler, ledgerh *ledger.Handler, sessionAuth fiber.Handler) {
	admin := app.Group("/admin", sessionAuth, middleware.RequireAdmin())

	// Provisioning runs in two steps so an initial balance is always logged
	// as a ledger deposit rather than written silently onto the account.
	admin.Post("/add-user", func(c *fiber.Ctx) error {
		claims, _ := middleware.SessionFromCtx(c)

		var req struct {
			account.SignupRequest
			InitialBalance string `json:"initialBalance"`
			Role           string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		initialCents := int64(0)
		if s := strings.TrimSpace(req.InitialBalance); s != "" {
			cents, err := money.Parse(s)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "initial balance: "+err.Error())
			}
			initialCents = cents
		}

		acc, err := accounts.Provision(c.UserContext(), account.ProvisionInput{
			SignupInput: req.Input(),
			Role:        req.Role,
			CreatedBy:   claims.Username,
		})
		if err != nil {
			var verr account.ValidationError
			switch {
			case errors.As(err, &verr):
				return fiber.NewError(http.StatusBadRequest, verr.Message)
			case errors.Is(err, account.ErrDuplicate):
				return fiber.NewError(http.StatusConflict, account.ErrDuplicate.Error())
			default:
				return fiber.NewError(http.StatusInternalServerError, "failed to create user")
			}
		}

		if initialCents > 0 {
			if _, err := ledgerStore.Deposit(c.UserContext(), ledger.AdminAccount,
				acc.AccountNumber, initialCents, ledger.TypeInitialDeposit); err != nil {
				return fiber.NewError(http.StatusInternalServerError, "failed to apply initial balance")
			}
		}

		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"message": "user created successfully",
			"id":      acc.ID,
		})
	})

	admin.Get("/users", accounth.Users)
	admin.Get("/pending-transfers", ledgerh.Pending)
	admin.Post("/approve-transfer", ledgerh.Approve)
	admin.Post("/reject-transfer", ledgerh.Reject)
}
