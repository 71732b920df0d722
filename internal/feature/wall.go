package feature

import (
	"math"

	"kabuscalp/internal/kabus"
)

// WallSide 指定在哪一侧盘口扫描。
type WallSide string

const (
	// WallSideBid 为买方支撑。
	WallSideBid WallSide = "bid"
	// WallSideAsk 为卖方压力。
	WallSideAsk WallSide = "ask"
)

// DetectWall 在指定侧前 10 档中按靠近盘口的顺序寻找第一个挂单量
// 达到 max(absQty, totalVolume*relPct) 的档位。没有命中返回 false。
// 挂单量明显大于当日常规流量的价位，市场很难在不消化它的情况下穿越，
// 因此可以作为支撑/压力参考价。
func DetectWall(snap kabus.BoardSnapshot, side WallSide, absQty, relPct, totalVolume float64) (kabus.Level, bool) {
	threshold := absQty
	if rel := totalVolume * relPct; rel > threshold {
		threshold = rel
	}
	if threshold <= 0 {
		return kabus.Level{}, false
	}

	levels := snap.Bids
	if side == WallSideAsk {
		levels = snap.Asks
	}

	for i, lvl := range levels {
		if i >= 10 {
			break
		}
		if lvl.Price <= 0 || lvl.Qty <= 0 {
			continue
		}
		if lvl.Qty >= threshold || math.Abs(lvl.Qty-threshold) < 1e-9 {
			return lvl, true
		}
	}

	return kabus.Level{}, false
}
