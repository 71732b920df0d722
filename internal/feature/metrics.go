package feature

import (
	"math"

	"kabuscalp/internal/kabus"
)

// BookMetrics 汇总一次快照的盘口微观指标，供决策引擎与候选排序使用。
type BookMetrics struct {
	Tick        float64
	Spread      float64
	SpreadTicks float64
	SpreadPct   float64
	Imbalance   float64 // 卖一量/买一量，>1 表示卖压占优
	ValuePerSec float64
	TimeToExit  float64 // 吃掉卖一档所需秒数，<0 表示不可估算
}

// ComputeMetrics 从快照计算盘口指标。tickFallback 为呼值推断失败时的兜底值。
func ComputeMetrics(snap kabus.BoardSnapshot, tickFallback float64, sessionOpenHour int) BookMetrics {
	m := BookMetrics{
		Tick:        InferTick(snap, tickFallback),
		ValuePerSec: ValuePerSecond(snap, sessionOpenHour),
		TimeToExit:  -1,
		Imbalance:   math.Inf(1),
	}

	if snap.Bid > 0 && snap.Ask > 0 {
		m.Spread = snap.Ask - snap.Bid
		if m.Tick > 0 {
			m.SpreadTicks = m.Spread / m.Tick
		}
		if mid := snap.Mid(); mid > 0 {
			m.SpreadPct = m.Spread / mid
		}
	}

	if snap.BidQty > 0 {
		m.Imbalance = snap.AskQty / snap.BidQty
	}

	m.TimeToExit = TimeToExit(snap.Ask, snap.AskQty, m.ValuePerSec)

	return m
}
