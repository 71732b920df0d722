package decision

import (
	"fmt"

	"kabuscalp/internal/config"
	"kabuscalp/internal/feature"
	"kabuscalp/internal/kabus"
)

const priceEpsilon = 1e-9

// Engine 将一次行情快照转换为报价方案。
// 条件不满足时返回 false，绝不返回错误：数据缺失、盘口过薄等
// 都是正常的放弃场景，由调用方跳过本轮即可。
type Engine interface {
	Decide(snap kabus.BoardSnapshot, params config.DecisionConfig) (PricePlan, bool)
}

// NewEngine 按策略名构造引擎。
func NewEngine(strategy string) (Engine, error) {
	switch strategy {
	case "range":
		return &RangeEngine{}, nil
	case "scalp":
		return &BandScalpEngine{}, nil
	default:
		return nil, fmt.Errorf("decision: 未知策略 %q", strategy)
	}
}

// precheck 按固定顺序执行两个变体共用的前置校验。
// 任何一步不满足即返回 false，顺序与校验语义保持稳定：
// 盘口有效 → 价差下限 → 失衡比 → 盘口金额 → 退出耗时 → 价差上限 → 流速下限。
func precheck(snap kabus.BoardSnapshot, params config.DecisionConfig) (feature.BookMetrics, bool) {
	var m feature.BookMetrics

	if snap.Bid <= 0 || snap.Ask <= 0 {
		return m, false
	}
	if snap.BidQty <= 0 || snap.AskQty <= 0 {
		return m, false
	}

	m = feature.ComputeMetrics(snap, params.Tick, params.SessionOpenHour)
	if m.Tick <= 0 {
		return m, false
	}

	// 价差不足一个刻度说明盘口数据异常或被锁定。
	if m.Spread < m.Tick-priceEpsilon {
		return m, false
	}

	if m.Imbalance > params.ImbalanceLimit+priceEpsilon {
		return m, false
	}

	if params.MinTopNotional > 0 {
		if snap.Ask*snap.AskQty < params.MinTopNotional {
			return m, false
		}
	}

	if params.MaxTimeToExit > 0 {
		if m.TimeToExit < 0 || m.TimeToExit > params.MaxTimeToExit.Seconds() {
			return m, false
		}
	}

	if params.MaxSpreadTicks > 0 && m.SpreadTicks > float64(params.MaxSpreadTicks)+priceEpsilon {
		return m, false
	}
	if params.MaxSpreadPct > 0 && m.SpreadPct > params.MaxSpreadPct {
		return m, false
	}

	if params.MinValuePerSec > 0 && m.ValuePerSec < params.MinValuePerSec {
		return m, false
	}

	return m, true
}

// validatePlan 做最终的三价关系校验，任何越界都放弃整个方案。
func validatePlan(plan PricePlan) bool {
	if plan.Sell <= plan.Buy+priceEpsilon {
		return false
	}
	if plan.Stop >= plan.Buy-priceEpsilon {
		return false
	}
	return true
}
