package feature

import (
	"testing"

	"kabuscalp/internal/kabus"
)

func TestInferTick_ExplicitTickWins(t *testing.T) {
	snap := kabus.BoardSnapshot{
		TickSize: 0.5,
		Bids:     []kabus.Level{{Price: 18.3, Qty: 100}},
	}
	if got := InferTick(snap, 0); got != 0.5 {
		t.Fatalf("expected explicit tick 0.5, got %v", got)
	}
}

func TestInferTick_IntegerLevelsFallBackToUnit(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Bids: []kabus.Level{{Price: 18, Qty: 100}, {Price: 17, Qty: 100}},
		Asks: []kabus.Level{{Price: 19, Qty: 100}},
	}
	if got := InferTick(snap, 0); got != 1.0 {
		t.Fatalf("expected tick 1.0 for integer levels, got %v", got)
	}
}

func TestInferTick_DecimalLevelsYieldSubTick(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Bids: []kabus.Level{{Price: 18.3, Qty: 100}},
		Asks: []kabus.Level{{Price: 18.4, Qty: 100}},
	}
	if got := InferTick(snap, 0); got != 0.1 {
		t.Fatalf("expected tick 0.1 for decimal levels, got %v", got)
	}
}

func TestInferTick_ProbesOnlyFirstThreeLevels(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Bids: []kabus.Level{
			{Price: 18, Qty: 100},
			{Price: 17, Qty: 100},
			{Price: 16, Qty: 100},
			{Price: 15.5, Qty: 100},
		},
	}
	if got := InferTick(snap, 0); got != 1.0 {
		t.Fatalf("expected fourth level to be ignored, got tick %v", got)
	}
}

func TestInferTick_UsesFallback(t *testing.T) {
	snap := kabus.BoardSnapshot{}
	if got := InferTick(snap, 0.5); got != 0.5 {
		t.Fatalf("expected fallback 0.5, got %v", got)
	}
	if got := InferTick(snap, 0); got != 1.0 {
		t.Fatalf("expected default 1.0, got %v", got)
	}
}

func TestRoundToTick(t *testing.T) {
	cases := []struct {
		price float64
		tick  float64
		want  float64
	}{
		{9.04, 0.1, 9.0},
		{9.06, 0.1, 9.1},
		{103.2, 1.0, 103},
		{7.0, 0, 7.0},
	}
	for _, tc := range cases {
		if got := RoundToTick(tc.price, tc.tick); got != tc.want {
			t.Errorf("RoundToTick(%v, %v) = %v, want %v", tc.price, tc.tick, got, tc.want)
		}
	}
}
