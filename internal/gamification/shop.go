package gamification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/owlet-learn/owlet/internal/profile"
)

// Receipt is the outcome of a successful purchase.
type Receipt struct {
	Item    Item            `json:"item"`
	Balance int             `json:"balance"`
	Profile profile.Profile `json:"profile"`
}

// Ledger runs shop purchases. Preconditions are checked in a fixed order:
// the item must exist, must not already be owned, and the balance must
// cover the price. The debit and the ownership grant land together.
type Ledger struct {
	store Store
}

// NewLedger creates a purchase ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Purchase buys itemID for profileID. A failed purchase changes nothing.
func (l *Ledger) Purchase(ctx context.Context, profileID, itemID string) (*Receipt, error) {
	item, err := l.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	owned, err := l.store.Owns(ctx, profileID, itemID)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	if owned {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOwned, itemID)
	}

	p, err := l.store.Purchase(ctx, profileID, *item)
	if err != nil {
		return nil, err
	}

	slog.Info("item purchased",
		"profile_id", profileID,
		"item", item.Name,
		"price", item.Price,
		"balance", p.Coins,
	)
	return &Receipt{Item: *item, Balance: p.Coins, Profile: *p}, nil
}
