// Package security holds the back-office PIN helpers. Only the bcrypt hash
// is ever stored; where it is stored is up to the caller.
package security

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPINLength = 4
	maxPINLength = 6
)

// ValidatePIN checks that a PIN is 4-6 digits.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return fmt.Errorf("PIN must be %d-%d digits", minPINLength, maxPINLength)
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("PIN must contain only digits")
		}
	}
	return nil
}

// HashPIN returns the bcrypt hash of a valid PIN.
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash PIN: %w", err)
	}
	return string(hash), nil
}

// VerifyPIN reports whether the PIN matches the stored hash.
func VerifyPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
