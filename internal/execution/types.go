package execution

import (
	"context"

	"kabuscalp/internal/kabus"
)

// Trader 抽象下单通道，方便在真实网关与模拟盘之间切换。
type Trader interface {
	// BuyLimit 提交现物限价买入，返回订单号。
	BuyLimit(ctx context.Context, symbol string, qty, price float64) (string, error)
	// SellLimit 提交现物限价卖出，返回订单号。
	SellLimit(ctx context.Context, symbol string, qty, price float64) (string, error)
	// Cancel 撤销指定订单。
	Cancel(ctx context.Context, orderID string) error
	// OrderByID 查询单笔订单，订单不存在时返回 ok=false。
	OrderByID(ctx context.Context, orderID string) (kabus.Order, bool, error)
	// Orders 查询当日全部现物订单。
	Orders(ctx context.Context) ([]kabus.Order, error)
	// Holdings 返回指定标的的现物可卖数量。
	Holdings(ctx context.Context, symbol string) (float64, error)
}

var _ Trader = (*Gateway)(nil)
var _ Trader = (*Simulator)(nil)
