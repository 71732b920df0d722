package feature

import (
	"math"
	"testing"
	"time"

	"kabuscalp/internal/kabus"
)

func TestValuePerSecond_GatewayValueWins(t *testing.T) {
	snap := kabus.BoardSnapshot{ValueSec: 1234, Value: 99999}
	if got := ValuePerSecond(snap, 9); got != 1234 {
		t.Fatalf("expected gateway value 1234, got %v", got)
	}
}

func TestValuePerSecond_DampedSessionAverage(t *testing.T) {
	snap := kabus.BoardSnapshot{
		Value: 100000,
		Time:  time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
	}

	want := 100000.0 / 3600.0 * 0.35
	got := ValuePerSecond(snap, 9)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected damped average %v, got %v", want, got)
	}
}

func TestValuePerSecond_ZeroTimestampGuard(t *testing.T) {
	snap := kabus.BoardSnapshot{Value: 100}
	// 时间戳缺失时按 1 秒处理，不得除零。
	want := 100.0 * 0.35
	if got := ValuePerSecond(snap, 9); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v with missing timestamp, got %v", want, got)
	}
}

func TestTimeToExit(t *testing.T) {
	if got := TimeToExit(9.1, 500, 10); math.Abs(got-455) > 1e-9 {
		t.Fatalf("expected eta 455, got %v", got)
	}
	if got := TimeToExit(9.1, 500, 0); got >= 0 {
		t.Fatalf("expected negative eta with zero velocity, got %v", got)
	}
	if got := TimeToExit(0, 500, 10); got >= 0 {
		t.Fatalf("expected negative eta with zero price, got %v", got)
	}
}

func TestComputeMetrics_ImbalanceInfiniteOnEmptyBid(t *testing.T) {
	snap := kabus.BoardSnapshot{Bid: 9.0, Ask: 9.1, AskQty: 500}
	m := ComputeMetrics(snap, 0.1, 9)
	if !math.IsInf(m.Imbalance, 1) {
		t.Fatalf("expected +Inf imbalance with zero bid qty, got %v", m.Imbalance)
	}
}
