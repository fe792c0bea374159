package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/recruit-portal/internal/models"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, or signed by someone else.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID string
	// ClientID names the signed-in client; it travels as the jti claim.
	ClientID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT binding the user to clientID and returns it with its claims.
func (t *TokenManager) Generate(user models.User, clientID string) (string, Claims, error) {
	now := t.now()
	claims := Claims{UserID: user.ID, ClientID: clientID, IssuedAt: now, ExpiresAt: now.Add(t.ttl)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   user.ID,
		ID:        clientID,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		NotBefore: jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func (t *TokenManager) Parse(raw string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &rc, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if rc.Subject == "" || rc.ID == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{UserID: rc.Subject, ClientID: rc.ID}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
