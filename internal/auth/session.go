package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmynk/zapsplit/internal/models"
)

// issuer is stamped on every session token and required on verification.
const issuer = "zapsplit"

// clockSkew is the leeway allowed on time-based claims.
const clockSkew = 30 * time.Second

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Session is a signed creator session handed back to the browser.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SessionClaims is what a creator's token asserts. The subject is the user ID.
//
// PayoutReady is a snapshot of whether the creator had a payout account when
// the token was issued. Tokens are reissued when the account changes, so the
// frontend can gate link sharing on it without another round trip.
type SessionClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	PayoutReady bool   `json:"payout_ready"`
	jwt.RegisteredClaims
}

// UserID is the ID of the creator the session belongs to.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// SessionManager issues and verifies HS256-signed creator sessions.
type SessionManager struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewSessionManager creates a manager signing with secret. The secret should
// be a strong random string of at least 32 bytes.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		key: []byte(secret),
		ttl: ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
		now: time.Now,
	}
}

// Issue signs a fresh session for user, capturing its current payout state.
func (m *SessionManager) Issue(user *models.User) (Session, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := &SessionClaims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PayoutReady: user.PayoutAccountID != "",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Verify checks a session token and returns its claims.
func (m *SessionManager) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: session has no creator", ErrInvalidToken)
	}
	return claims, nil
}
