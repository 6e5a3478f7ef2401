package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
	passwordCost     = 12
)

var (
	// ErrWeakPassword wraps every password policy violation
	ErrWeakPassword     = errors.New("password rejected")
	ErrPasswordTooShort = fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("%w: must be at most %d bytes", ErrWeakPassword, maxPasswordBytes)
	ErrPasswordMismatch = errors.New("password does not match")
	// ErrNoPassword is returned for accounts created by an administrator that
	// never set a password
	ErrNoPassword = errors.New("account has no password set")
)

// HashPassword checks the length bounds and returns the bcrypt hash
func HashPassword(password string) (string, error) {
	switch {
	case len([]rune(password)) < minPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(hash), err
}

// VerifyPassword compares a stored hash with a plaintext attempt
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return ErrNoPassword
	}
	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return err
	}
}

// NeedsRehash reports whether hash was made with a cost other than the current one
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != passwordCost
}

// GenerateUsername returns prefix_ followed by 8 random hex characters
func GenerateUsername(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
