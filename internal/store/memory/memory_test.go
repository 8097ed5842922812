package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func fields(amount int64, typ core.TransactionType, date core.Date) store.TransactionFields {
	return store.TransactionFields{
		Amount:      core.Money{Cents: amount},
		Description: "test",
		Category:    "General",
		Type:        typ,
		Date:        date,
	}
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateTransaction(ctx, "alice", fields(100, core.Income, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	txns, err := s.ListTransactions(ctx, "alice", store.Order{Field: store.OrderByDate, Direction: store.Ascending})
	if err != nil || len(txns) != 1 {
		t.Fatalf("list: %v (%d records)", err, len(txns))
	}
	if txns[0].CreatedAt.IsZero() {
		t.Fatal("expected store-assigned CreatedAt")
	}
	created := txns[0].CreatedAt

	upd := fields(250, core.Expense, core.NewDate(2024, 2, 2))
	if err := s.UpdateTransaction(ctx, "alice", id, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	txns, _ = s.ListTransactions(ctx, "alice", store.Order{Field: store.OrderByDate, Direction: store.Ascending})
	if txns[0].Amount.Cents != 250 || txns[0].Type != core.Expense {
		t.Fatalf("update not applied: %+v", txns[0])
	}
	if !txns[0].CreatedAt.Equal(created) {
		t.Fatal("CreatedAt must be immutable on update")
	}

	if err := s.DeleteTransaction(ctx, "alice", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "alice", id); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentityScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateTransaction(ctx, "alice", fields(100, core.Income, core.NewDate(2024, 1, 1))); err != nil {
		t.Fatalf("create: %v", err)
	}

	bobs, err := s.ListTransactions(ctx, "bob", store.Order{Field: store.OrderByDate, Direction: store.Descending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bobs) != 0 {
		t.Fatalf("cross-identity visibility: %d records", len(bobs))
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateTransaction(ctx, "alice", fields(1, core.Income, core.NewDate(2024, 2, 1)))
	s.CreateTransaction(ctx, "alice", fields(2, core.Income, core.NewDate(2024, 1, 1)))
	s.CreateTransaction(ctx, "alice", fields(3, core.Income, core.NewDate(2024, 3, 1)))

	txns, _ := s.ListTransactions(ctx, "alice", store.Order{Field: store.OrderByDate, Direction: store.Descending})
	if txns[0].Amount.Cents != 3 || txns[2].Amount.Cents != 2 {
		t.Fatalf("unexpected date-desc order: %v", txns)
	}

	txns, _ = s.ListTransactions(ctx, "alice", store.Order{Field: store.OrderByDate, Direction: store.Ascending})
	if txns[0].Amount.Cents != 2 || txns[2].Amount.Cents != 3 {
		t.Fatalf("unexpected date-asc order: %v", txns)
	}
}

func TestCategoryOrderingAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"Rent", "Food", "Food"} {
		if _, err := s.CreateCategory(ctx, "alice", name); err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
	}

	cats, err := s.ListCategories(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Duplicate names are legal; listing is name-ascending.
	if len(cats) != 3 || cats[0].Name != "Food" || cats[1].Name != "Food" || cats[2].Name != "Rent" {
		t.Fatalf("unexpected listing: %v", cats)
	}
}

func TestSeedDefaultsOnlyOnEmpty(t *testing.T) {
	ctx := context.Background()
	s := New()

	seeded, err := s.SeedDefaults(ctx, "alice", core.DefaultCategories)
	if err != nil || !seeded {
		t.Fatalf("first seed: seeded=%v err=%v", seeded, err)
	}

	seeded, err = s.SeedDefaults(ctx, "alice", core.DefaultCategories)
	if err != nil || seeded {
		t.Fatalf("second seed must be a no-op: seeded=%v err=%v", seeded, err)
	}

	cats, _ := s.ListCategories(ctx, "alice")
	if len(cats) != len(core.DefaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(core.DefaultCategories), len(cats))
	}
}

func TestSubscribePushesOnChange(t *testing.T) {
	ctx := context.Background()
	s := New()

	var snapshots int64
	var lastLen int64
	unsub := s.SubscribeTransactions("alice", store.Order{Field: store.OrderByDate, Direction: store.Descending},
		func(txns []core.Transaction) {
			atomic.AddInt64(&snapshots, 1)
			atomic.StoreInt64(&lastLen, int64(len(txns)))
		},
		func(err error) { t.Errorf("unexpected subscription error: %v", err) })

	// Initial snapshot arrives synchronously.
	if atomic.LoadInt64(&snapshots) != 1 || atomic.LoadInt64(&lastLen) != 0 {
		t.Fatalf("expected initial empty snapshot, got %d/%d", snapshots, lastLen)
	}

	s.CreateTransaction(ctx, "alice", fields(100, core.Income, core.NewDate(2024, 1, 1)))
	waitFor(t, func() bool { return atomic.LoadInt64(&lastLen) == 1 })

	unsub()
	before := atomic.LoadInt64(&snapshots)
	s.CreateTransaction(ctx, "alice", fields(200, core.Income, core.NewDate(2024, 1, 2)))
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt64(&snapshots) != before {
		t.Fatal("snapshot delivered after unsubscribe")
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := New()

	uid, err := s.CreateUser(ctx, "a@b.c", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, "A@B.C", "hash"); err != store.ErrEmailInUse {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	if err := s.CreateSession(ctx, "tok", uid, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := s.SessionUser(ctx, "tok")
	if err != nil || got != uid {
		t.Fatalf("session user: %q %v", got, err)
	}

	if err := s.DeleteSession(ctx, "tok"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := s.SessionUser(ctx, "tok"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Expired sessions do not resolve.
	s.CreateSession(ctx, "old", uid, time.Now().Add(-time.Minute))
	if _, err := s.SessionUser(ctx, "old"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for expired, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
