package auth

import (
	"unicode/utf8"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

var ErrWeakPassword = apperr.Validation("password must be at least 8 characters")

// ValidatePassword applies the password policy.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return ErrWeakPassword
	}
	// bcrypt refuses input longer than 72 bytes.
	if len(pw) > 72 {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. Malformed hashes never
// match.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
