// Package profile manages learner profiles: display identity, grade level
// and the XP/coin balances the rest of the system reads and adjusts.
package profile

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("profile not found")
	ErrInsufficientFunds = errors.New("insufficient coins")
)

// Profile is one learner. An account may own several profiles (siblings
// sharing a parent account), each with its own progress and balances.
type Profile struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Grade       int       `json:"grade"`
	AvatarName  string    `json:"avatar_name,omitempty"`
	XP          int       `json:"xp"`
	Coins       int       `json:"coins"`
	CreatedAt   time.Time `json:"created_at"`
}

// Earnings is an XP/coin delta applied to a profile. Both fields must be
// non-negative; spending goes through SpendCoins so the balance check holds.
type Earnings struct {
	XP    int
	Coins int
}
