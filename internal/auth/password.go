package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password storage modes accepted by NewPasswordHasher.
const (
	PasswordBcrypt    = "bcrypt"
	PasswordPlaintext = "plaintext"
)

// PasswordHasher turns a password into its stored form and checks candidates against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(stored, candidate string) bool
}

// NewPasswordHasher resolves a storage mode name.
func NewPasswordHasher(mode string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", PasswordBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case PasswordPlaintext:
		return PlaintextHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password storage mode %q", mode)
	}
}

// BcryptHasher stores bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h BcryptHasher) Matches(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

// PlaintextHasher stores passwords verbatim and compares them exactly.
// Only for compatibility with records written before hashing was introduced.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextHasher) Matches(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}
