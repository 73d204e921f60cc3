package roster

import (
	"context"
	"errors"
	"testing"

	"flboard/internal/api/memory"
	"flboard/internal/core"
)

func TestLoadSplitsActiveAndPending(t *testing.T) {
	store := memory.New()
	store.SeedUser("a@example.com", "pw", "A", core.RoleAdmin, 1200, false)
	store.SeedUser("b@example.com", "pw", "B", "", 0, true)

	m := New(store)
	if _, err := m.Users(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	users, _ := m.Users()
	pending, _ := m.Pending()
	if len(users) != 1 || len(pending) != 1 {
		t.Fatalf("users=%d pending=%d", len(users), len(pending))
	}
}

func TestApproveDefaultsWageAndRole(t *testing.T) {
	store := memory.New()
	id := store.SeedUser("new@example.com", "pw", "New", "", 0, true)
	m := New(store)
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	// Zero wage and empty role fall back to the defaults.
	if err := m.Approve(ctx, id, "", 0); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	users, _ := m.Users()
	if len(users) != 1 {
		t.Fatalf("users = %+v", users)
	}
	if users[0].BaseHourlyWage != DefaultHourlyWage {
		t.Errorf("wage = %d, want %d", users[0].BaseHourlyWage, DefaultHourlyWage)
	}
	if users[0].Role != core.RoleEmployee {
		t.Errorf("role = %q", users[0].Role)
	}
	pending, _ := m.Pending()
	if len(pending) != 0 {
		t.Errorf("pending must empty after approval: %+v", pending)
	}
}

func TestUpdateAndDeleteRefetch(t *testing.T) {
	store := memory.New()
	id := store.SeedUser("a@example.com", "pw", "A", core.RoleEmployee, 1000, false)
	m := New(store)
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.Update(ctx, id, core.RoleAdmin, 1500); err != nil {
		t.Fatalf("Update: %v", err)
	}
	users, _ := m.Users()
	if users[0].Role != core.RoleAdmin || users[0].BaseHourlyWage != 1500 {
		t.Errorf("after update: %+v", users[0])
	}

	if err := m.Update(ctx, id, core.RoleAdmin, 0); err == nil {
		t.Error("zero wage must be rejected on update")
	}

	if err := m.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	users, _ = m.Users()
	if len(users) != 0 {
		t.Errorf("users after delete = %+v", users)
	}
}
