package execution

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"kabuscalp/internal/kabus"
)

// 现物产品类别，/orders 与 /positions 查询共用。
const productCash = "1"

// Gateway 把下单通道落到 kabu STATION 网关客户端上。
type Gateway struct {
	client *kabus.Client
	logger *zap.Logger
}

// NewGateway 创建真实下单通道。
func NewGateway(client *kabus.Client, logger *zap.Logger) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("execution: 网关客户端不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{client: client, logger: logger}, nil
}

// BuyLimit 实现 Trader。
func (g *Gateway) BuyLimit(ctx context.Context, symbol string, qty, price float64) (string, error) {
	orderID, err := g.client.SendOrder(ctx, kabus.OrderRequest{
		Symbol: symbol,
		Side:   kabus.SideBuy,
		Qty:    qty,
		Price:  price,
	})
	if err != nil {
		return "", err
	}

	g.logger.Info("已提交买入委托",
		zap.String("symbol", symbol),
		zap.String("order_id", orderID),
		zap.Float64("qty", qty),
		zap.Float64("price", price),
	)
	return orderID, nil
}

// SellLimit 实现 Trader。
func (g *Gateway) SellLimit(ctx context.Context, symbol string, qty, price float64) (string, error) {
	orderID, err := g.client.SendOrder(ctx, kabus.OrderRequest{
		Symbol: symbol,
		Side:   kabus.SideSell,
		Qty:    qty,
		Price:  price,
	})
	if err != nil {
		return "", err
	}

	g.logger.Info("已提交卖出委托",
		zap.String("symbol", symbol),
		zap.String("order_id", orderID),
		zap.Float64("qty", qty),
		zap.Float64("price", price),
	)
	return orderID, nil
}

// Cancel 实现 Trader。
func (g *Gateway) Cancel(ctx context.Context, orderID string) error {
	if err := g.client.CancelOrder(ctx, orderID); err != nil {
		return err
	}
	g.logger.Info("已提交撤单", zap.String("order_id", orderID))
	return nil
}

// OrderByID 实现 Trader。
func (g *Gateway) OrderByID(ctx context.Context, orderID string) (kabus.Order, bool, error) {
	orders, err := g.client.GetOrders(ctx, kabus.OrdersFilter{Product: productCash, ID: orderID})
	if err != nil {
		return kabus.Order{}, false, err
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, true, nil
		}
	}
	return kabus.Order{}, false, nil
}

// Orders 实现 Trader。
func (g *Gateway) Orders(ctx context.Context) ([]kabus.Order, error) {
	return g.client.GetOrders(ctx, kabus.OrdersFilter{Product: productCash})
}

// Holdings 实现 Trader。
func (g *Gateway) Holdings(ctx context.Context, symbol string) (float64, error) {
	positions, err := g.client.GetPositions(ctx, kabus.PositionsFilter{Product: productCash, Symbol: symbol})
	if err != nil {
		return 0, err
	}

	var total float64
	for _, pos := range positions {
		total += pos.LeavesQty
	}
	return total, nil
}
