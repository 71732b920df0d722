package decision

import (
	"testing"

	"kabuscalp/internal/config"
	"kabuscalp/internal/kabus"
)

type stubEngine struct {
	plans map[string]PricePlan
}

func (s *stubEngine) Decide(snap kabus.BoardSnapshot, _ config.DecisionConfig) (PricePlan, bool) {
	plan, ok := s.plans[snap.Symbol]
	return plan, ok
}

func rankerSnapshot(symbol string) kabus.BoardSnapshot {
	return kabus.BoardSnapshot{
		Symbol: symbol,
		Bid:    100,
		BidQty: 1000,
		Ask:    101,
		AskQty: 500,
	}
}

func rankerPlan(symbol string, eta, imbalance, vps float64) PricePlan {
	return PricePlan{
		Symbol: symbol,
		Buy:    100,
		Sell:   101,
		Stop:   99,
		Diag: Diagnostics{
			TimeToExit:  eta,
			Imbalance:   imbalance,
			ValuePerSec: vps,
		},
	}
}

func TestRankerPick_SmallestETAWins(t *testing.T) {
	engine := &stubEngine{plans: map[string]PricePlan{
		"A": rankerPlan("A", 20, 0.5, 100),
		"B": rankerPlan("B", 10, 0.9, 50),
	}}
	ranker := NewRanker(engine, config.DecisionConfig{Tick: 1})

	snaps := []kabus.BoardSnapshot{rankerSnapshot("A"), rankerSnapshot("B")}
	cand, ok := ranker.Pick(snaps)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Plan.Symbol != "B" {
		t.Fatalf("expected B with the smaller eta, got %s", cand.Plan.Symbol)
	}
}

func TestRankerPick_InputOrderIsNotAKey(t *testing.T) {
	engine := &stubEngine{plans: map[string]PricePlan{
		"A": rankerPlan("A", 10, 0.5, 100),
		"B": rankerPlan("B", 10, 0.9, 500),
		"C": rankerPlan("C", 30, 0.1, 999),
	}}
	ranker := NewRanker(engine, config.DecisionConfig{Tick: 1})

	forward := []kabus.BoardSnapshot{rankerSnapshot("A"), rankerSnapshot("B"), rankerSnapshot("C")}
	backward := []kabus.BoardSnapshot{rankerSnapshot("C"), rankerSnapshot("B"), rankerSnapshot("A")}

	first, ok := ranker.Pick(forward)
	if !ok {
		t.Fatal("expected a candidate for forward order")
	}
	second, ok := ranker.Pick(backward)
	if !ok {
		t.Fatal("expected a candidate for backward order")
	}

	if first.Plan.Symbol != second.Plan.Symbol {
		t.Fatalf("selection depends on scan order: %s vs %s", first.Plan.Symbol, second.Plan.Symbol)
	}
	// eta 打平后按失衡比决出 A。
	if first.Plan.Symbol != "A" {
		t.Fatalf("expected A on the imbalance tie-break, got %s", first.Plan.Symbol)
	}
}

func TestRankerPick_ValuePerSecBreaksFinalTie(t *testing.T) {
	engine := &stubEngine{plans: map[string]PricePlan{
		"A": rankerPlan("A", 10, 0.5, 100),
		"B": rankerPlan("B", 10, 0.5, 900),
	}}
	ranker := NewRanker(engine, config.DecisionConfig{Tick: 1})

	cand, ok := ranker.Pick([]kabus.BoardSnapshot{rankerSnapshot("A"), rankerSnapshot("B")})
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Plan.Symbol != "B" {
		t.Fatalf("expected B with the larger traded value velocity, got %s", cand.Plan.Symbol)
	}
}

func TestRankerPrefilter_DropsIneligibleSnapshots(t *testing.T) {
	engine := &stubEngine{plans: map[string]PricePlan{
		"A": rankerPlan("A", 10, 0.5, 100),
	}}
	ranker := NewRanker(engine, config.DecisionConfig{Tick: 1, ImbalanceLimit: 2})

	locked := rankerSnapshot("A")
	locked.Ask = locked.Bid // spread below one tick

	pressured := rankerSnapshot("A")
	pressured.AskQty = 5000 // ratio 5.0 over the limit

	for name, snap := range map[string]kabus.BoardSnapshot{
		"locked book": locked,
		"heavy asks":  pressured,
	} {
		if _, ok := ranker.Pick([]kabus.BoardSnapshot{snap}); ok {
			t.Errorf("%s: expected prefilter rejection", name)
		}
	}
}

func TestRankerPick_EmptyUniverse(t *testing.T) {
	ranker := NewRanker(&stubEngine{}, config.DecisionConfig{Tick: 1})
	if _, ok := ranker.Pick(nil); ok {
		t.Fatal("expected no candidate from an empty universe")
	}
}
