package position

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(db, nil)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func TestRepository_LoadEmpty(t *testing.T) {
	repo := newTestRepository(t)

	_, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("expected no state in a fresh store")
	}
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	st := State{
		Symbol:      "9973@1",
		Exchange:    1,
		Qty:         100,
		EntryPrice:  9.1,
		StopPrice:   9.0,
		ExitOrderID: "X1",
		EnteredAt:   time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, found, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected persisted state")
	}
	if loaded.Symbol != st.Symbol || loaded.EntryPrice != st.EntryPrice || loaded.StopPrice != st.StopPrice {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.ExitOrderID != "X1" {
		t.Fatalf("expected exit order id X1, got %q", loaded.ExitOrderID)
	}
	if !loaded.EnteredAt.Equal(st.EnteredAt) {
		t.Fatalf("entered_at mismatch: %v vs %v", loaded.EnteredAt, st.EnteredAt)
	}
}

func TestRepository_SaveOverwritesSingleSlot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := first
	second.ExitOrderID = "X2"
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	loaded, found, err := repo.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if loaded.ExitOrderID != "X2" {
		t.Fatalf("expected overwritten exit order id, got %q", loaded.ExitOrderID)
	}
}

func TestRepository_ClearRemovesStateAndWritesHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	st := State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0}
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Clear(ctx, "exit_confirmed", st); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, found, err := repo.Load(ctx); err != nil || found {
		t.Fatalf("expected empty store after clear: found=%v err=%v", found, err)
	}

	var count int
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM position_history WHERE event_type = 'exit_confirmed'`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan history: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one history row, got %d", count)
	}
}
