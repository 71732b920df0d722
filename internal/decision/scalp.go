package decision

import (
	"fmt"

	"kabuscalp/internal/config"
	"kabuscalp/internal/feature"
	"kabuscalp/internal/kabus"
)

// BandScalpEngine 为固定价格带内的一档剥头皮变体：
// 只做中间价落在配置价格带内的标的，挂买一排队入场，
// 止盈固定一档，止损一档、风险信号出现时放宽到两档。
type BandScalpEngine struct{}

// Decide 实现 Engine。
func (e *BandScalpEngine) Decide(snap kabus.BoardSnapshot, params config.DecisionConfig) (PricePlan, bool) {
	m, ok := precheck(snap, params)
	if !ok {
		return PricePlan{}, false
	}

	// 该变体最终要吃掉卖一离场，对成交速度要求比入场排队更高。
	if params.MinValuePerSecTak > 0 && m.ValuePerSec < params.MinValuePerSecTak {
		return PricePlan{}, false
	}

	// 该启发式对价位高度敏感，只在配置的绝对价格带内生效。
	mid := snap.Mid()
	if params.PriceBandHigh > params.PriceBandLow {
		if mid < params.PriceBandLow || mid > params.PriceBandHigh {
			return PricePlan{}, false
		}
	}

	tick := m.Tick
	buy := feature.RoundToTick(snap.Bid, tick)
	sell := feature.RoundToTick(buy+tick, tick)

	// 逆向选择风险信号之一出现时，把止损从一档放宽到两档。
	stopTicks := 1
	reasons := make([]string, 0, 2)
	switch {
	case params.StopWidenSpread > 0 && m.SpreadTicks >= float64(params.StopWidenSpread)-priceEpsilon:
		stopTicks = 2
		reasons = append(reasons, "价差偏宽，止损放宽到两档")
	case params.StopWidenImbal > 0 && m.Imbalance >= params.StopWidenImbal:
		stopTicks = 2
		reasons = append(reasons, "卖压偏重，止损放宽到两档")
	case params.StopWidenETA > 0 && m.TimeToExit >= params.StopWidenETA.Seconds():
		stopTicks = 2
		reasons = append(reasons, "预计退出偏慢，止损放宽到两档")
	}

	stop := feature.RoundToTick(buy-float64(stopTicks)*tick, tick)

	// 与档数无关的最终保险：止损距离占买入价的比例不得超过硬上限。
	if params.StopPctCeiling > 0 && buy > 0 {
		if (buy-stop)/buy > params.StopPctCeiling+priceEpsilon {
			return PricePlan{}, false
		}
	}

	reasons = append(reasons, fmt.Sprintf("买一排队 %.1f，一档止盈 %.1f", buy, sell))

	plan := PricePlan{
		Symbol: snap.Symbol,
		Buy:    buy,
		Sell:   sell,
		Stop:   stop,
		Bid:    snap.Bid,
		Ask:    snap.Ask,
		Diag: Diagnostics{
			Tick:        tick,
			SpreadTicks: m.SpreadTicks,
			SpreadPct:   m.SpreadPct,
			Imbalance:   m.Imbalance,
			ValuePerSec: m.ValuePerSec,
			TimeToExit:  m.TimeToExit,
			Reasons:     reasons,
		},
	}

	if !validatePlan(plan) {
		return PricePlan{}, false
	}

	return plan, true
}

var _ Engine = (*BandScalpEngine)(nil)
var _ Engine = (*RangeEngine)(nil)
