package profile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/owlet-learn/owlet/internal/profile"
)

func seedProfile(t *testing.T, store *profile.MemoryStore, coins int) profile.Profile {
	t.Helper()
	p := profile.Profile{
		ID:          "00000000-0000-0000-0000-000000000010",
		AccountID:   "00000000-0000-0000-0000-0000000000aa",
		DisplayName: "Maya",
		Grade:       3,
		Coins:       coins,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestMemoryStore_AddEarnings(t *testing.T) {
	store := profile.NewMemoryStore()
	p := seedProfile(t, store, 0)

	updated, err := store.AddEarnings(context.Background(), p.ID, profile.Earnings{XP: 20, Coins: 10})
	if err != nil {
		t.Fatalf("AddEarnings() error = %v", err)
	}
	if updated.XP != 20 || updated.Coins != 10 {
		t.Errorf("balances = xp %d coins %d, want xp 20 coins 10", updated.XP, updated.Coins)
	}

	updated, err = store.AddEarnings(context.Background(), p.ID, profile.Earnings{XP: 10, Coins: 5})
	if err != nil {
		t.Fatalf("second AddEarnings() error = %v", err)
	}
	if updated.XP != 30 || updated.Coins != 15 {
		t.Errorf("balances = xp %d coins %d, want xp 30 coins 15", updated.XP, updated.Coins)
	}
}

func TestMemoryStore_SpendCoins(t *testing.T) {
	store := profile.NewMemoryStore()
	p := seedProfile(t, store, 40)

	updated, err := store.SpendCoins(context.Background(), p.ID, 40)
	if err != nil {
		t.Fatalf("SpendCoins() error = %v", err)
	}
	if updated.Coins != 0 {
		t.Errorf("coins = %d, want 0", updated.Coins)
	}

	_, err = store.SpendCoins(context.Background(), p.ID, 1)
	if !errors.Is(err, profile.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// A failed spend leaves the balance untouched.
	got, err := store.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Coins != 0 {
		t.Errorf("coins after failed spend = %d, want 0", got.Coins)
	}
}

func TestMemoryStore_SpendCoins_ConcurrentNeverOverdraws(t *testing.T) {
	store := profile.NewMemoryStore()
	p := seedProfile(t, store, 50)

	const spenders = 10
	var wg sync.WaitGroup
	var okCount, failCount int
	var mu sync.Mutex

	for i := 0; i < spenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.SpendCoins(context.Background(), p.ID, 10)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				okCount++
			} else {
				failCount++
			}
		}()
	}
	wg.Wait()

	if okCount != 5 || failCount != 5 {
		t.Errorf("spends ok = %d fail = %d, want 5 and 5", okCount, failCount)
	}
	got, _ := store.Get(context.Background(), p.ID)
	if got.Coins != 0 {
		t.Errorf("final coins = %d, want 0", got.Coins)
	}
}

func TestMemoryStore_ListByAccount(t *testing.T) {
	store := profile.NewMemoryStore()
	account := "00000000-0000-0000-0000-0000000000aa"
	base := time.Now().UTC()

	for i, id := range []string{
		"00000000-0000-0000-0000-000000000021",
		"00000000-0000-0000-0000-000000000022",
	} {
		err := store.Create(context.Background(), profile.Profile{
			ID:        id,
			AccountID: account,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	err := store.Create(context.Background(), profile.Profile{
		ID:        "00000000-0000-0000-0000-000000000023",
		AccountID: "00000000-0000-0000-0000-0000000000bb",
		CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	profiles, err := store.ListByAccount(context.Background(), account)
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(profiles))
	}
	if profiles[0].ID != "00000000-0000-0000-0000-000000000021" {
		t.Errorf("profiles not ordered by creation time")
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := profile.NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
