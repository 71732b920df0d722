package decision

import (
	"fmt"
	"math"

	"kabuscalp/internal/config"
	"kabuscalp/internal/feature"
	"kabuscalp/internal/kabus"
)

// RangeEngine 为跟随当日区间的变体：
// 买入价贴向买方支撑墙，止盈放在卖方压力墙之前，
// 一旦价格离当日低点过远即放弃入场。
type RangeEngine struct{}

// Decide 实现 Engine。
func (e *RangeEngine) Decide(snap kabus.BoardSnapshot, params config.DecisionConfig) (PricePlan, bool) {
	m, ok := precheck(snap, params)
	if !ok {
		return PricePlan{}, false
	}
	if snap.Low <= 0 || snap.High <= 0 {
		return PricePlan{}, false
	}

	tick := m.Tick
	reasons := make([]string, 0, 3)

	buyWall, hasBuyWall := feature.DetectWall(snap, feature.WallSideBid, params.WallAbsQty, params.WallRelPct, snap.Volume)
	sellWall, hasSellWall := feature.DetectWall(snap, feature.WallSideAsk, params.WallAbsQty, params.WallRelPct, snap.Volume)

	// 买入候选：卖一价与买方支撑墙中较高者，顺势而非逆势。
	tentative := snap.Ask
	if hasBuyWall && buyWall.Price > tentative {
		tentative = buyWall.Price
	}

	// 离当日低点过远说明行情已经走出一段，此处追入风险偏高。
	if tentative-snap.Low > float64(params.NearLowAllowTicks)*tick+priceEpsilon {
		return PricePlan{}, false
	}

	buy := feature.RoundToTick(tentative, tick)

	tpMin := buy + float64(params.TPMinTicks)*tick
	tpMax := buy + float64(params.TPMaxTicks)*tick
	target := tpMin
	if hasSellWall {
		// 压力墙太近时利润空间不足，放弃整个快照。
		if sellWall.Price-buy < float64(params.MinRoomTicks)*tick-priceEpsilon {
			return PricePlan{}, false
		}
		target = math.Min(sellWall.Price-tick, tpMax)
	}

	sell := feature.RoundToTick(math.Max(target, tpMin), tick)
	stop := feature.RoundToTick(buy-float64(params.SLTicks)*tick, tick)

	// 买入价必须落在当日区间内。
	if buy < snap.Low-priceEpsilon || buy > snap.High+priceEpsilon {
		return PricePlan{}, false
	}

	if hasBuyWall {
		reasons = append(reasons, fmt.Sprintf("贴向买方支撑墙 %.1f 设置买入价", buyWall.Price))
	} else {
		reasons = append(reasons, "未检测到买方支撑墙，按卖一价设置买入")
	}
	if hasSellWall {
		reasons = append(reasons, fmt.Sprintf("在卖方压力墙 %.1f 前一档止盈", sellWall.Price))
	} else {
		reasons = append(reasons, fmt.Sprintf("无压力墙，采用最小止盈 %d 档", params.TPMinTicks))
	}
	reasons = append(reasons, fmt.Sprintf("止损 %d 档（%.1f）", params.SLTicks, stop))

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
	if hasBuyWall {
		plan.Diag.BuyWall = &kabus.Level{Price: buyWall.Price, Qty: buyWall.Qty}
	}
	if hasSellWall {
		plan.Diag.SellWall = &kabus.Level{Price: sellWall.Price, Qty: sellWall.Qty}
	}

	if !validatePlan(plan) {
		return PricePlan{}, false
	}

	return plan, true
}
