package decision

import (
	"kabuscalp/internal/kabus"
)

// Diagnostics 记录一份报价方案的中间依据，便于复盘与监控落库。
type Diagnostics struct {
	Tick        float64      `json:"tick"`
	SpreadTicks float64      `json:"spread_ticks"`
	SpreadPct   float64      `json:"spread_pct"`
	Imbalance   float64      `json:"imbalance"`
	ValuePerSec float64      `json:"value_per_sec"`
	TimeToExit  float64      `json:"time_to_exit"`
	BuyWall     *kabus.Level `json:"buy_wall,omitempty"`
	SellWall    *kabus.Level `json:"sell_wall,omitempty"`
	Reasons     []string     `json:"reasons"`
}

// PricePlan 为一次完整的报价方案：买入、止盈、止损三价。
// 引擎只在 stop < buy < sell 全部成立时返回方案。
type PricePlan struct {
	Symbol string  `json:"symbol"`
	Buy    float64 `json:"buy"`
	Sell   float64 `json:"sell"`
	Stop   float64 `json:"stop"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`

	Diag Diagnostics `json:"diag"`
}
