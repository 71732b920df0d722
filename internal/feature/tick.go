package feature

import (
	"math"

	"kabuscalp/internal/kabus"
)

const tickEpsilon = 1e-6

// InferTick 推断标的的呼值单位。
// 网关明确给出呼值时直接采用；否则检查两侧前三档价格，
// 发现非整数但落在 0.1 刻度上的价格即判定为 0.1 刻度，最后退回 fallback。
func InferTick(snap kabus.BoardSnapshot, fallback float64) float64 {
	if snap.TickSize > 0 {
		return snap.TickSize
	}

	probe := func(levels []kabus.Level) (float64, bool) {
		for i, lvl := range levels {
			if i >= 3 {
				break
			}
			if lvl.Price <= 0 {
				continue
			}
			if !onGrid(lvl.Price, 1.0) && onGrid(lvl.Price, 0.1) {
				return 0.1, true
			}
		}
		return 0, false
	}

	if tick, ok := probe(snap.Bids); ok {
		return tick
	}
	if tick, ok := probe(snap.Asks); ok {
		return tick
	}

	if fallback > 0 {
		return fallback
	}
	return 1.0
}

// RoundToTick 将价格对齐到最近的刻度。
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	steps := math.Round(price / tick)
	return steps * tick
}

func onGrid(price, unit float64) bool {
	rem := math.Mod(price, unit)
	if rem < 0 {
		rem += unit
	}
	return rem < tickEpsilon || unit-rem < tickEpsilon
}
