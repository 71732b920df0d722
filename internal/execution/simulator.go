package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/kabus"
)

// Simulator 为模拟盘下单通道：委托立即全部成交，不触达真实网关。
// 用于在真实行情下验证决策链路而不动用资金。
type Simulator struct {
	mu       sync.Mutex
	seq      int
	orders   map[string]kabus.Order
	holdings map[string]float64
	logger   *zap.Logger
}

// NewSimulator 创建模拟下单通道。
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		orders:   make(map[string]kabus.Order),
		holdings: make(map[string]float64),
		logger:   logger,
	}
}

func (s *Simulator) submit(symbol, side string, qty, price float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	orderID := fmt.Sprintf("SIM-%06d", s.seq)
	now := time.Now().UTC()

	s.orders[orderID] = kabus.Order{
		ID:         orderID,
		OrderState: kabus.OrderStateDone,
		RecvTime:   now,
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		OrderQty:   qty,
		CumQty:     qty,
		Details: []kabus.OrderDetail{{
			RecType:      kabus.RecTypeExecuted,
			Price:        price,
			Qty:          qty,
			TransactTime: now,
		}},
	}

	if side == kabus.SideBuy {
		s.holdings[symbol] += qty
	} else {
		s.holdings[symbol] -= qty
		if s.holdings[symbol] < 0 {
			s.holdings[symbol] = 0
		}
	}

	return orderID
}

// BuyLimit 实现 Trader。
func (s *Simulator) BuyLimit(_ context.Context, symbol string, qty, price float64) (string, error) {
	orderID := s.submit(symbol, kabus.SideBuy, qty, price)
	s.logger.Info("模拟买入成交",
		zap.String("symbol", symbol),
		zap.String("order_id", orderID),
		zap.Float64("qty", qty),
		zap.Float64("price", price),
	)
	return orderID, nil
}

// SellLimit 实现 Trader。
func (s *Simulator) SellLimit(_ context.Context, symbol string, qty, price float64) (string, error) {
	orderID := s.submit(symbol, kabus.SideSell, qty, price)
	s.logger.Info("模拟卖出成交",
		zap.String("symbol", symbol),
		zap.String("order_id", orderID),
		zap.Float64("qty", qty),
		zap.Float64("price", price),
	)
	return orderID, nil
}

// Cancel 实现 Trader。模拟盘委托立即成交，撤单始终为空操作。
func (s *Simulator) Cancel(_ context.Context, orderID string) error {
	s.logger.Info("模拟撤单", zap.String("order_id", orderID))
	return nil
}

// OrderByID 实现 Trader。
func (s *Simulator) OrderByID(_ context.Context, orderID string) (kabus.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	return order, ok, nil
}

// Orders 实现 Trader。
func (s *Simulator) Orders(_ context.Context) ([]kabus.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]kabus.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

// Holdings 实现 Trader。
func (s *Simulator) Holdings(_ context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.holdings[symbol], nil
}
