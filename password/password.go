// Package password hashes and checks account passwords with bcrypt.
package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest password Validate accepts.
const MinLength = 8

var (
	// ErrTooShort is returned by Validate.
	ErrTooShort = errors.New("password_too_short")
	// ErrUnknownFormat is returned by Verify for hashes it cannot read.
	ErrUnknownFormat = errors.New("unknown_hash_format")
)

// Validate enforces the signup password policy.
func Validate(password string) error {
	if len(password) < MinLength {
		return ErrTooShort
	}
	return nil
}

// Hash produces the hash stored for new accounts.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsBcryptHash detects common bcrypt prefixes.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// Verify compares a stored hash with a plaintext password. A mismatch is
// (false, nil); anything that is not a bcrypt hash never matches.
func Verify(hash, password string) (bool, error) {
	if !IsBcryptHash(hash) {
		return false, ErrUnknownFormat
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}
