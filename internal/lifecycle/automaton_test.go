package lifecycle

import (
	"context"
	"testing"
	"time"

	"kabuscalp/internal/config"
	"kabuscalp/internal/decision"
	"kabuscalp/internal/kabus"
	"kabuscalp/internal/position"
)

type mockTrader struct {
	calls []string

	buyID    string
	sellID   string
	order    kabus.Order
	orderOK  bool
	holdings float64

	sellPrices []float64
	cancelled  []string
}

func (m *mockTrader) BuyLimit(_ context.Context, symbol string, qty, price float64) (string, error) {
	m.calls = append(m.calls, "BuyLimit")
	return m.buyID, nil
}

func (m *mockTrader) SellLimit(_ context.Context, symbol string, qty, price float64) (string, error) {
	m.calls = append(m.calls, "SellLimit")
	m.sellPrices = append(m.sellPrices, price)
	return m.sellID, nil
}

func (m *mockTrader) Cancel(_ context.Context, orderID string) error {
	m.calls = append(m.calls, "Cancel")
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

func (m *mockTrader) OrderByID(_ context.Context, orderID string) (kabus.Order, bool, error) {
	m.calls = append(m.calls, "OrderByID")
	return m.order, m.orderOK, nil
}

func (m *mockTrader) Holdings(_ context.Context, symbol string) (float64, error) {
	m.calls = append(m.calls, "Holdings")
	return m.holdings, nil
}

type memStore struct {
	st       *position.State
	saves    int
	clearTyp string
}

func (s *memStore) Load(_ context.Context) (position.State, bool, error) {
	if s.st == nil {
		return position.State{}, false, nil
	}
	return *s.st, true, nil
}

func (s *memStore) Save(_ context.Context, st position.State) error {
	copied := st
	s.st = &copied
	s.saves++
	return nil
}

func (s *memStore) Clear(_ context.Context, eventType string, _ position.State) error {
	s.st = nil
	s.clearTyp = eventType
	return nil
}

func testTradeConfig() config.TradeConfig {
	return config.TradeConfig{
		Qty:         100,
		ProfitTicks: 1,
		FillWait:    20 * time.Millisecond,
		FillPoll:    5 * time.Millisecond,
	}
}

func testPlan() decision.PricePlan {
	return decision.PricePlan{
		Symbol: "9973@1",
		Buy:    9.1,
		Sell:   9.2,
		Stop:   9.0,
		Bid:    9.0,
		Ask:    9.1,
	}
}

func newTestAutomaton(t *testing.T, trader *mockTrader, store *memStore) *Automaton {
	t.Helper()
	a, err := NewAutomaton(trader, store, testTradeConfig(), nil)
	if err != nil {
		t.Fatalf("NewAutomaton: %v", err)
	}
	return a
}

func TestTryEnter_RefusesWhileHolding(t *testing.T) {
	trader := &mockTrader{}
	store := &memStore{st: &position.State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0}}
	a := newTestAutomaton(t, trader, store)

	entered, err := a.TryEnter(context.Background(), testPlan(), 9.1)
	if err != nil {
		t.Fatalf("TryEnter: %v", err)
	}
	if entered {
		t.Fatal("expected no second entry while a position is open")
	}
	if len(trader.calls) != 0 {
		t.Fatalf("expected no trader calls, got %v", trader.calls)
	}
}

func TestTryEnter_SkipsWhenBuyBelowAsk(t *testing.T) {
	trader := &mockTrader{}
	store := &memStore{}
	a := newTestAutomaton(t, trader, store)

	entered, err := a.TryEnter(context.Background(), testPlan(), 9.2)
	if err != nil {
		t.Fatalf("TryEnter: %v", err)
	}
	if entered {
		t.Fatal("expected skip when buy price is below the live ask")
	}
	if len(trader.calls) != 0 {
		t.Fatalf("expected no trader calls, got %v", trader.calls)
	}
}

func TestTryEnter_FillTimeoutCancelsAndStaysIdle(t *testing.T) {
	trader := &mockTrader{buyID: "E1", order: kabus.Order{ID: "E1", OrderState: kabus.OrderStateWait, OrderQty: 100}, orderOK: true}
	store := &memStore{}
	a := newTestAutomaton(t, trader, store)

	entered, err := a.TryEnter(context.Background(), testPlan(), 9.1)
	if err != nil {
		t.Fatalf("TryEnter: %v", err)
	}
	if entered {
		t.Fatal("expected entry to time out")
	}
	if store.st != nil {
		t.Fatal("no position state may be persisted on timeout")
	}
	if len(trader.cancelled) != 1 || trader.cancelled[0] != "E1" {
		t.Fatalf("expected the entry order to be cancelled, got %v", trader.cancelled)
	}
}

func TestTryEnter_FilledPersistsAndSubmitsTakeProfit(t *testing.T) {
	trader := &mockTrader{
		buyID:   "E1",
		sellID:  "X1",
		order:   kabus.Order{ID: "E1", OrderState: kabus.OrderStateDone, OrderQty: 100, CumQty: 100},
		orderOK: true,
	}
	store := &memStore{}
	a := newTestAutomaton(t, trader, store)

	plan := testPlan()
	entered, err := a.TryEnter(context.Background(), plan, 9.1)
	if err != nil {
		t.Fatalf("TryEnter: %v", err)
	}
	if !entered {
		t.Fatal("expected a confirmed entry")
	}

	if store.st == nil {
		t.Fatal("expected persisted position state")
	}
	if store.st.EntryPrice != plan.Buy || store.st.StopPrice != plan.Stop {
		t.Fatalf("unexpected persisted prices: %+v", store.st)
	}
	if store.st.ExitOrderID != "X1" {
		t.Fatalf("expected exit order id X1, got %q", store.st.ExitOrderID)
	}
	if len(trader.sellPrices) != 1 || trader.sellPrices[0] != plan.Sell {
		t.Fatalf("expected take-profit at %v, got %v", plan.Sell, trader.sellPrices)
	}
}

func TestManage_ExitConfirmedClearsState(t *testing.T) {
	trader := &mockTrader{holdings: 0}
	store := &memStore{st: &position.State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0, ExitOrderID: "X1"}}
	a := newTestAutomaton(t, trader, store)

	cleared, err := a.Manage(context.Background(), *store.st, kabus.BoardSnapshot{Bid: 9.2, Ask: 9.3}, 0.1)
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if !cleared {
		t.Fatal("expected the position to be cleared")
	}
	if store.st != nil {
		t.Fatal("expected state removed from the store")
	}
	if store.clearTyp != "exit_confirmed" {
		t.Fatalf("unexpected clear event type %q", store.clearTyp)
	}
}

func TestManage_StopBreachSellsAtBid(t *testing.T) {
	trader := &mockTrader{holdings: 100, sellID: "S1"}
	st := position.State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0, ExitOrderID: "X1"}
	store := &memStore{st: &st}
	a := newTestAutomaton(t, trader, store)

	cleared, err := a.Manage(context.Background(), st, kabus.BoardSnapshot{Bid: 8.9, Ask: 9.0}, 0.1)
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if cleared {
		t.Fatal("position must stay open until holdings drain")
	}

	if len(trader.cancelled) != 1 || trader.cancelled[0] != "X1" {
		t.Fatalf("expected outstanding exit order cancelled, got %v", trader.cancelled)
	}
	if len(trader.sellPrices) != 1 || trader.sellPrices[0] != 8.9 {
		t.Fatalf("expected stop sell at bid 8.9, got %v", trader.sellPrices)
	}
	if store.st == nil || store.st.ExitOrderID != "S1" {
		t.Fatalf("expected new exit order id persisted, got %+v", store.st)
	}
}

func TestManage_RefreshesTakeProfit(t *testing.T) {
	trader := &mockTrader{holdings: 100, sellID: "X2"}
	st := position.State{Symbol: "9973@1", Qty: 100, EntryPrice: 9.1, StopPrice: 9.0, ExitOrderID: "X1"}
	store := &memStore{st: &st}
	a := newTestAutomaton(t, trader, store)

	cleared, err := a.Manage(context.Background(), st, kabus.BoardSnapshot{Bid: 9.1, Ask: 9.2}, 0.1)
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if cleared {
		t.Fatal("position must stay open")
	}

	if len(trader.cancelled) != 1 || trader.cancelled[0] != "X1" {
		t.Fatalf("expected old take-profit cancelled, got %v", trader.cancelled)
	}
	want := 9.1 + 0.1
	if len(trader.sellPrices) != 1 || trader.sellPrices[0] != want {
		t.Fatalf("expected take-profit at %v, got %v", want, trader.sellPrices)
	}
	if store.st == nil || store.st.ExitOrderID != "X2" {
		t.Fatalf("expected refreshed exit order id, got %+v", store.st)
	}
}

func TestPhase(t *testing.T) {
	trader := &mockTrader{}

	a := newTestAutomaton(t, trader, &memStore{})
	if phase, _, _ := a.Phase(context.Background()); phase != PhaseIdle {
		t.Fatalf("expected idle without state, got %s", phase)
	}

	holding := &memStore{st: &position.State{Symbol: "9973@1"}}
	a = newTestAutomaton(t, trader, holding)
	if phase, _, _ := a.Phase(context.Background()); phase != PhaseHolding {
		t.Fatalf("expected holding, got %s", phase)
	}

	exiting := &memStore{st: &position.State{Symbol: "9973@1", ExitOrderID: "X1"}}
	a = newTestAutomaton(t, trader, exiting)
	if phase, _, _ := a.Phase(context.Background()); phase != PhaseExitSubmitted {
		t.Fatalf("expected exit submitted, got %s", phase)
	}
}
