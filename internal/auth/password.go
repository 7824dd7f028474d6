package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginDisabled      = errors.New("admin login is not configured")
)

const minPasswordLength = 8

// bcryptCost is a variable so tests can lower it
var bcryptCost = 12

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminCredentials holds the single admin account configured for the dashboard
type AdminCredentials struct {
	email        string
	passwordHash string
}

func NewAdminCredentials(email, passwordHash string) *AdminCredentials {
	return &AdminCredentials{email: strings.ToLower(strings.TrimSpace(email)), passwordHash: passwordHash}
}

// Verify checks an email and password against the configured admin
func (a *AdminCredentials) Verify(email, password string) error {
	if a.passwordHash == "" {
		return ErrLoginDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) == 1
	if !CheckPassword(password, a.passwordHash) || !emailOK {
		return ErrInvalidCredentials
	}
	return nil
}
