package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/account"
	"github.com/vaultbank/vaultbank/internal/auth"
	"github.com/vaultbank/vaultbank/internal/ledger"
	"github.com/vaultbank/vaultbank/internal/middleware"
)

// RegisterUserRoutes wires the public signup/login endpoints and the
// session-protected account operations.
func RegisterUserRoutes(app *fiber.App, d Deps, accounts *account.Handler, authh *auth.Handler, ledgerh *ledger.Handler, sessionAuth, dedupe fiber.Handler) {
	user := app.Group("/user")

	signupLimit := middleware.RateLimit(d.Cache, "signup", signupMax, signupWindow, middleware.ByIP)
	loginLimit := middleware.RateLimit(d.Cache, "login", d.Cfg.LoginAttemptsPerMin, time.Minute, middleware.ByUsernameOrIP)

	user.Post("/signup", signupLimit, accounts.Signup)
	user.Post("/login", loginLimit, authh.Login)

	protected := user.Group("", sessionAuth)
	protected.Post("/transfer", dedupe, ledgerh.Transfer)
	protected.Post("/add-funds", dedupe, ledgerh.AddFunds)
	protected.Get("/balance", ledgerh.Balance)
	protected.Get("/transfers", ledgerh.History)
	protected.Post("/logout", authh.Logout)
}
