package kabus

import (
	"time"
)

// 订单方向。kabu STATION 的约定与直觉相反：1=卖出, 2=买入。
const (
	SideSell = "1"
	SideBuy  = "2"
)

// 订单明细 RecType，8 表示已成交记录。
const RecTypeExecuted = 8

// 订单状态，1-4 为存活状态，5 为终态（全部成交/撤销/失效）。
const (
	OrderStateWait       = 1
	OrderStateProcessing = 2
	OrderStateProcessed  = 3
	OrderStateCanceling  = 4
	OrderStateDone       = 5
)

// Level 表示盘口单个档位。
type Level struct {
	Price float64
	Qty   float64
}

// BoardSnapshot 为单次行情快照，所有价格字段均为当日口径。
// Bids/Asks 已按距离最优价由近到远排序，最多 10 档。
type BoardSnapshot struct {
	Symbol   string
	Bid      float64
	BidQty   float64
	Ask      float64
	AskQty   float64
	Last     float64
	Open     float64
	High     float64
	Low      float64
	Volume   float64
	Value    float64
	ValueSec float64 // 每秒成交金额，网关通常不提供，为 0 时由上层估算
	TickSize float64 // 呼值单位，为 0 时由上层推断
	Bids     []Level
	Asks     []Level
	Time     time.Time
}

// Mid 返回中间价，任一侧缺失时返回 0。
func (b BoardSnapshot) Mid() float64 {
	if b.Bid <= 0 || b.Ask <= 0 {
		return 0
	}
	return (b.Bid + b.Ask) / 2
}

// OrderDetail 为订单的单条明细记录。
type OrderDetail struct {
	SeqNum       int
	ID           string
	RecType      int
	State        int
	Price        float64
	Qty          float64
	TransactTime time.Time
}

// Order 为订单回报。LeavesQty 在部分网关版本中缺失，读取时请使用 Leaves()。
type Order struct {
	ID         string
	State      int
	OrderState int
	RecvTime   time.Time
	Symbol     string
	Side       string
	Price      float64
	OrderQty   float64
	CumQty     float64
	LeavesQty  float64
	Details    []OrderDetail
}

// Leaves 返回剩余未成交数量，LeavesQty 缺失时按 OrderQty-CumQty 推算。
func (o Order) Leaves() float64 {
	if o.LeavesQty > 0 {
		return o.LeavesQty
	}
	remain := o.OrderQty - o.CumQty
	if remain < 0 {
		return 0
	}
	return remain
}

// LiveState 返回订单状态，优先取 OrderState。
func (o Order) LiveState() int {
	if o.OrderState > 0 {
		return o.OrderState
	}
	if o.State > 0 {
		return o.State
	}
	return OrderStateDone
}

// Terminal 判断订单是否已终结。
func (o Order) Terminal() bool {
	return o.LiveState() == OrderStateDone
}

// Filled 判断订单是否已全部成交。
func (o Order) Filled() bool {
	return o.OrderQty > 0 && o.CumQty >= o.OrderQty
}

// Position 为持仓记录。
type Position struct {
	Symbol    string
	Side      string
	LeavesQty float64
}

// OrdersFilter 约束订单查询范围。零值字段不参与过滤。
type OrdersFilter struct {
	Product string
	Symbol  string
	Side    string
	ID      string
	Updtime time.Time
}

// PositionsFilter 约束持仓查询范围。
type PositionsFilter struct {
	Product string
	Symbol  string
	Side    string
}

// OrderRequest 为现物委托参数，字段语义遵循 kabu STATION /sendorder。
type OrderRequest struct {
	Symbol   string
	Exchange int
	Side     string
	Qty      float64
	Price    float64
}
