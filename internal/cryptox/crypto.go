// Package cryptox wraps password hashing for the credential store.
package cryptox

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for stored passwords.
const DefaultCost = 12

// ErrMismatch is returned by CheckPassword when the password is wrong.
var ErrMismatch = errors.New("password mismatch")

// HashPassword returns the bcrypt hash of password at the given cost.
// A cost below bcrypt.MinCost is raised to DefaultCost.
func HashPassword(password []byte, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares password with a stored bcrypt hash. Any failure,
// including a corrupt hash, is reported as ErrMismatch.
func CheckPassword(hash string, password []byte) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		return ErrMismatch
	}
	return nil
}

// dummyHash is compared against when the account does not exist, so that
// unknown emails cost the same time as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword([]byte("pup-timing-equaliser"), DefaultCost)
	return h
})

// BurnCompare spends roughly one bcrypt comparison worth of time.
func BurnCompare(password []byte) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash()), password)
}
