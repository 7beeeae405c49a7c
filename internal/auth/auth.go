// Package auth handles parent accounts: registration, password login and
// the session tokens the HTTP layer checks on every request.
package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password too weak")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionExpired     = errors.New("session expired or unknown")
)

// Account is a parent account. Learner profiles hang off it.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Privileged   bool      `json:"privileged"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller attached to a request. Privileged
// identities may trigger curriculum generation and catalog writes.
type Identity struct {
	AccountID  string `json:"account_id"`
	Privileged bool   `json:"privileged"`
}
