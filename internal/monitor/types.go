package monitor

import (
	"time"

	"kabuscalp/internal/decision"
	"kabuscalp/internal/risk"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventBoard      EventType = "board"
	EventPlan       EventType = "plan"
	EventRisk       EventType = "risk"
	EventTransition EventType = "transition"
	EventWallet     EventType = "wallet"
	EventError      EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BoardPayload 记录一次盘口采样的关键指标。
type BoardPayload struct {
	Symbol      string  `json:"symbol"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	BidQty      float64 `json:"bid_qty"`
	AskQty      float64 `json:"ask_qty"`
	Last        float64 `json:"last"`
	Volume      float64 `json:"volume"`
	Value       float64 `json:"value"`
	ValuePerSec float64 `json:"value_per_sec"`
}

// PlanPayload 记录选中的报价方案。
type PlanPayload struct {
	Plan decision.PricePlan `json:"plan"`
}

// RiskPayload 记录风控判定。
type RiskPayload struct {
	Symbol  string       `json:"symbol"`
	Verdict risk.Verdict `json:"verdict"`
}

// TransitionPayload 记录生命周期状态变化。
type TransitionPayload struct {
	Symbol string `json:"symbol"`
	From   string `json:"from"`
	To     string `json:"to"`
	Note   string `json:"note,omitempty"`
}

// WalletPayload 记录现物买付余力。
type WalletPayload struct {
	CashBalance float64 `json:"cash_balance"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
