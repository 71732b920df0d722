package decision

import (
	"kabuscalp/internal/config"
	"kabuscalp/internal/feature"
	"kabuscalp/internal/kabus"
)

// Candidate 为通过引擎校验的一个入场候选。
type Candidate struct {
	Snapshot kabus.BoardSnapshot
	Plan     PricePlan
}

// Ranker 在多标的快照中挑选唯一的入场候选。
// 排序只依赖盘口指标，与传入顺序无关。
type Ranker struct {
	engine Engine
	params config.DecisionConfig
}

// NewRanker 构造候选排序器。
func NewRanker(engine Engine, params config.DecisionConfig) *Ranker {
	return &Ranker{engine: engine, params: params}
}

// Pick 先用廉价指标粗筛，再对通过粗筛的快照逐个决策，
// 最后按 退出耗时升序 → 失衡比升序 → 流速降序 选出最优候选。
// 没有任何快照产生有效方案时返回 false。
func (r *Ranker) Pick(snaps []kabus.BoardSnapshot) (Candidate, bool) {
	var (
		best    Candidate
		hasBest bool
	)

	for _, snap := range snaps {
		if !r.prefilter(snap) {
			continue
		}

		plan, ok := r.engine.Decide(snap, r.params)
		if !ok {
			continue
		}

		cand := Candidate{Snapshot: snap, Plan: plan}
		if !hasBest || better(cand, best) {
			best = cand
			hasBest = true
		}
	}

	return best, hasBest
}

// prefilter 只用最便宜的指标快速排除明显不合格的快照，
// 完整校验仍由引擎的 Decide 负责。
func (r *Ranker) prefilter(snap kabus.BoardSnapshot) bool {
	if snap.Bid <= 0 || snap.Ask <= 0 || snap.BidQty <= 0 || snap.AskQty <= 0 {
		return false
	}

	tick := feature.InferTick(snap, r.params.Tick)
	if tick <= 0 {
		return false
	}
	if snap.Ask-snap.Bid < tick-priceEpsilon {
		return false
	}

	if r.params.ImbalanceLimit > 0 {
		if snap.AskQty/snap.BidQty > r.params.ImbalanceLimit+priceEpsilon {
			return false
		}
	}

	if r.params.MaxTimeToExit > 0 {
		vps := feature.ValuePerSecond(snap, r.params.SessionOpenHour)
		eta := feature.TimeToExit(snap.Ask, snap.AskQty, vps)
		if eta < 0 || eta > r.params.MaxTimeToExit.Seconds() {
			return false
		}
	}

	return true
}

// better 判断 a 是否优于 b。三个指标全部来自盘口本身，
// 全部打平时再按代码字典序兜底，保证结果与遍历顺序无关。
func better(a, b Candidate) bool {
	if diff := a.Plan.Diag.TimeToExit - b.Plan.Diag.TimeToExit; diff < -priceEpsilon {
		return true
	} else if diff > priceEpsilon {
		return false
	}

	if diff := a.Plan.Diag.Imbalance - b.Plan.Diag.Imbalance; diff < -priceEpsilon {
		return true
	} else if diff > priceEpsilon {
		return false
	}

	if diff := a.Plan.Diag.ValuePerSec - b.Plan.Diag.ValuePerSec; diff > priceEpsilon {
		return true
	} else if diff < -priceEpsilon {
		return false
	}

	return a.Plan.Symbol < b.Plan.Symbol
}
