package gamification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/profile"
)

const testItemID = "00000000-0000-0000-0000-000000000e01"

func seedItem(t *testing.T, store *gamification.MemoryStore, price int) {
	t.Helper()
	err := store.PutItems(context.Background(), gamification.Item{
		ID:       testItemID,
		Name:     "Wizard Hat",
		Category: "avatar",
		Price:    price,
	})
	if err != nil {
		t.Fatalf("PutItems() error = %v", err)
	}
}

func TestLedger_Purchase_ExactBalance(t *testing.T) {
	store, profiles := newGamificationStore(t, 40)
	seedItem(t, store, 40)
	ledger := gamification.NewLedger(store)

	receipt, err := ledger.Purchase(context.Background(), testProfileID, testItemID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if receipt.Balance != 0 {
		t.Errorf("balance = %d, want 0", receipt.Balance)
	}

	owns, err := store.Owns(context.Background(), testProfileID, testItemID)
	if err != nil || !owns {
		t.Errorf("Owns() = %v, %v, want true", owns, err)
	}

	// Buying the same item again fails without touching the balance.
	_, err = ledger.Purchase(context.Background(), testProfileID, testItemID)
	if !errors.Is(err, gamification.ErrAlreadyOwned) {
		t.Fatalf("repeat purchase error = %v, want ErrAlreadyOwned", err)
	}
	p, _ := profiles.Get(context.Background(), testProfileID)
	if p.Coins != 0 {
		t.Errorf("coins after repeat purchase = %d, want 0", p.Coins)
	}
}

func TestLedger_Purchase_InsufficientFunds(t *testing.T) {
	store, profiles := newGamificationStore(t, 30)
	seedItem(t, store, 40)
	ledger := gamification.NewLedger(store)

	_, err := ledger.Purchase(context.Background(), testProfileID, testItemID)
	if !errors.Is(err, profile.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// Nothing changed: no debit, no ownership.
	p, _ := profiles.Get(context.Background(), testProfileID)
	if p.Coins != 30 {
		t.Errorf("coins = %d, want 30 untouched", p.Coins)
	}
	owns, _ := store.Owns(context.Background(), testProfileID, testItemID)
	if owns {
		t.Errorf("failed purchase must not grant ownership")
	}
}

func TestLedger_Purchase_UnknownItem(t *testing.T) {
	store, _ := newGamificationStore(t, 100)
	ledger := gamification.NewLedger(store)

	_, err := ledger.Purchase(context.Background(), testProfileID, "00000000-0000-0000-0000-0000000000ff")
	if !errors.Is(err, gamification.ErrItemNotFound) {
		t.Fatalf("error = %v, want ErrItemNotFound", err)
	}
}

func TestLedger_Purchase_NotFoundBeatsOtherFailures(t *testing.T) {
	// An unknown item reports ErrItemNotFound even when the balance could
	// not have covered anything anyway.
	store, _ := newGamificationStore(t, 0)
	ledger := gamification.NewLedger(store)

	_, err := ledger.Purchase(context.Background(), testProfileID, "00000000-0000-0000-0000-0000000000ff")
	if !errors.Is(err, gamification.ErrItemNotFound) {
		t.Fatalf("error = %v, want ErrItemNotFound to win", err)
	}
}
