// Package auth exposes the login/logout endpoints that mint and clear
// session cookies.
package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/account"
	"github.com/vaultbank/vaultbank/internal/config"
	"github.com/vaultbank/vaultbank/internal/session"
)

// Handler exposes auth endpoints for login/logout.
type Handler struct {
	cfg      config.Config
	accounts *account.Service
	issuer   *session.Issuer
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(cfg config.Config, accounts *account.Service, issuer *session.Issuer) *Handler {
	return &Handler{cfg: cfg, accounts: accounts, issuer: issuer}
}

type loginRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

// Login verifies credentials and delivers a session token bound to the
// client's IP and user agent via an HTTP-only cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.AccountNumber == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "all fields are required")
	}

	acc, err := h.accounts.Authenticate(c.UserContext(), req.Name, req.AccountNumber, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	token, exp, err := h.issuer.Issue(session.IssueInput{
		Username:      acc.Username,
		AccountNumber: acc.AccountNumber,
		Role:          acc.Role,
		IP:            c.IP(),
		UserAgent:     c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":       "login successful",
		"name":          acc.Username,
		"accountNumber": acc.AccountNumber,
		"role":          acc.Role,
	})
}

// Logout clears the session cookie. Tokens cannot be revoked server-side;
// an unexpired stolen token stays valid until expiry.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "logged out successfully"})
}
