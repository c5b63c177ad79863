package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotConfigured means the signing secret is missing. Surfaced to
	// clients as a server configuration problem so they retry later
	// instead of forcing a re-login.
	ErrNotConfigured = errors.New("credential verifier not configured")
	// ErrNoToken means no credential was present in any source.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken wraps parse, signature and expiry failures. Clients
	// should clear stored credentials and log in again.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified result of a credential check.
type Identity struct {
	UserID int
	Role   string
}

// Verifier validates a bearer credential and resolves the identity it carries.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a JWTVerifier. An empty secret is accepted here and
// rejected per-call; verification must fail closed, not crash the process.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns the embedded identity.
func (v *JWTVerifier) Verify(token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrNotConfigured
	}
	if token == "" {
		return Identity{}, ErrNoToken
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidToken, reason(err))
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.UserID == 0 {
		return Identity{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return Identity{UserID: c.UserID, Role: c.Role}, nil
}

// reason keeps the remediation-relevant part of the jwt error so a client can
// tell a stale secret apart from an expired token.
func reason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature verification failed"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	default:
		return err.Error()
	}
}

// FailureReason maps a verification failure to a client-facing reason. The
// three cases need different remediation: log in, clear stored credentials
// and log in again, or retry later.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no token provided"
	case errors.Is(err, ErrNotConfigured):
		return "server configuration error"
	default:
		return err.Error()
	}
}

// IssueToken signs a token carrying the user identity. Used by the login
// flow upstream of this service and by tests.
func IssueToken(secret string, userID int, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}
