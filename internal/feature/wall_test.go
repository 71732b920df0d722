package feature

import (
	"testing"

	"kabuscalp/internal/kabus"
)

func TestDetectWall_FindsFirstLevelAtThreshold(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Bids: []kabus.Level{
			{Price: 100, Qty: 5000},
			{Price: 99, Qty: 400000},
			{Price: 98, Qty: 900000},
		},
	}

	wall, ok := DetectWall(snap, WallSideBid, 300000, 0, 0)
	if !ok {
		t.Fatal("expected a bid wall")
	}
	if wall.Price != 99 {
		t.Fatalf("expected nearest qualifying level 99, got %v", wall.Price)
	}
}

func TestDetectWall_RelativeThresholdDominates(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Asks: []kabus.Level{
			{Price: 101, Qty: 350000},
			{Price: 102, Qty: 600000},
		},
	}

	// 300000 absolute, but 0.001 of 500M volume = 500000 takes over.
	wall, ok := DetectWall(snap, WallSideAsk, 300000, 0.001, 500000000)
	if !ok {
		t.Fatal("expected an ask wall")
	}
	if wall.Price != 102 {
		t.Fatalf("expected 101 to fall below relative threshold, got wall at %v", wall.Price)
	}
}

func TestDetectWall_NoQualifyingLevel(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Bids: []kabus.Level{{Price: 100, Qty: 100}},
	}
	if _, ok := DetectWall(snap, WallSideBid, 300000, 0, 0); ok {
		t.Fatal("expected no wall on a thin book")
	}
}

func TestDetectWall_IgnoresLevelsBeyondTen(t *testing.T) {
	levels := make([]kabus.Level, 0, 11)
	for i := 0; i < 10; i++ {
		levels = append(levels, kabus.Level{Price: float64(100 - i), Qty: 100})
	}
	levels = append(levels, kabus.Level{Price: 89, Qty: 400000})

	snap := kabus.BoardSnapshot{Bids: levels}
	if _, ok := DetectWall(snap, WallSideBid, 300000, 0, 0); ok {
		t.Fatal("expected the eleventh level to be out of scan range")
	}
}
