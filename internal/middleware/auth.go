package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vaultbank/vaultbank/internal/session"
)

const sessionLocalsKey = "session_claims"

// One message for every authentication failure: missing token, bad signature,
// expiry, and fingerprint mismatch must be indistinguishable to the client.
const authRequiredMessage = "authentication required"

// SessionAuth validates the session token from the cookie (or bearer header
// fallback) and compares the embedded client fingerprint against the live
// request to detect token theft.
func SessionAuth(cookieName string, issuer *session.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			authz := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("Bearer "):])
			}
		}
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, authRequiredMessage)
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, authRequiredMessage)
		}

		if claims.IP != "" && claims.IP != c.IP() {
			return fiber.NewError(http.StatusUnauthorized, authRequiredMessage)
		}
		if claims.UserAgent != "" && claims.UserAgent != c.Get(fiber.HeaderUserAgent) {
			return fiber.NewError(http.StatusUnauthorized, authRequiredMessage)
		}

		c.Locals(sessionLocalsKey, claims)
		return c.Next()
	}
}

// RequireAdmin rejects requests whose session does not carry the admin role.
// Must run after SessionAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := SessionFromCtx(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, authRequiredMessage)
		}
		if !claims.IsAdmin() {
			return fiber.NewError(http.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// SessionFromCtx returns the claims attached by SessionAuth.
func SessionFromCtx(c *fiber.Ctx) (session.Claims, bool) {
	claims, ok := c.Locals(sessionLocalsKey).(session.Claims)
	return claims, ok
}
