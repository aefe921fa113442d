// Package session mints and validates the signed bearer tokens that carry a
// logged-in user's identity, role, and client fingerprint. Tokens are not
// persisted server-side: validity is determined entirely by signature, expiry
// and the fingerprint match performed by the auth middleware.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure. Callers must not leak a
// more specific reason to the client.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the session token payload. IP and UserAgent pin the token to the
// client it was issued to.
type Claims struct {
	Username      string `json:"name"`
	AccountNumber string `json:"accountNumber"`
	Role          string `json:"role"`
	IP            string `json:"ip"`
	UserAgent     string `json:"ua"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session belongs to an admin account.
func (c Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds a token issuer with the given HMAC secret and token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// IssueInput identifies the account and the client a token is minted for.
type IssueInput struct {
	Username      string
	AccountNumber string
	Role          string
	IP            string
	UserAgent     string
}

// Issue mints a signed token with a fresh session id and the configured expiry.
func (i *Issuer) Issue(input IssueInput) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Username:      input.Username,
		AccountNumber: input.AccountNumber,
		Role:          input.Role,
		IP:            input.IP,
		UserAgent:     input.UserAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// TTL exposes the configured token lifetime, used to set the cookie max age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
