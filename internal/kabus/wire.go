package kabus

import (
	"time"
)

// 网关返回的原始报文。字段名与 kabu STATION REST 文档保持一致。

type levelPayload struct {
	Price *float64 `json:"Price"`
	Qty   *float64 `json:"Qty"`
}

type boardPayload struct {
	Symbol             string        `json:"Symbol"`
	BidPrice           *float64      `json:"BidPrice"`
	BidQty             *float64      `json:"BidQty"`
	AskPrice           *float64      `json:"AskPrice"`
	AskQty             *float64      `json:"AskQty"`
	CurrentPrice       *float64      `json:"CurrentPrice"`
	CurrentPriceTime   string        `json:"CurrentPriceTime"`
	OpeningPrice       *float64      `json:"OpeningPrice"`
	HighPrice          *float64      `json:"HighPrice"`
	LowPrice           *float64      `json:"LowPrice"`
	TradingVolume      *float64      `json:"TradingVolume"`
	TradingValue       *float64      `json:"TradingValue"`
	TradingValuePerSec *float64      `json:"TradingValuePerSec"`
	TickSize           *float64      `json:"TickSize"`
	MinPriceTick       *float64      `json:"MinPriceTick"`
	PriceStep          *float64      `json:"PriceStep"`
	Buy1               *levelPayload `json:"Buy1"`
	Buy2               *levelPayload `json:"Buy2"`
	Buy3               *levelPayload `json:"Buy3"`
	Buy4               *levelPayload `json:"Buy4"`
	Buy5               *levelPayload `json:"Buy5"`
	Buy6               *levelPayload `json:"Buy6"`
	Buy7               *levelPayload `json:"Buy7"`
	Buy8               *levelPayload `json:"Buy8"`
	Buy9               *levelPayload `json:"Buy9"`
	Buy10              *levelPayload `json:"Buy10"`
	Sell1              *levelPayload `json:"Sell1"`
	Sell2              *levelPayload `json:"Sell2"`
	Sell3              *levelPayload `json:"Sell3"`
	Sell4              *levelPayload `json:"Sell4"`
	Sell5              *levelPayload `json:"Sell5"`
	Sell6              *levelPayload `json:"Sell6"`
	Sell7              *levelPayload `json:"Sell7"`
	Sell8              *levelPayload `json:"Sell8"`
	Sell9              *levelPayload `json:"Sell9"`
	Sell10             *levelPayload `json:"Sell10"`
}

type orderDetailPayload struct {
	SeqNum       int      `json:"SeqNum"`
	ID           string   `json:"ID"`
	RecType      int      `json:"RecType"`
	State        int      `json:"State"`
	Price        *float64 `json:"Price"`
	Qty          *float64 `json:"Qty"`
	TransactTime string   `json:"TransactTime"`
}

type orderPayload struct {
	ID         string               `json:"ID"`
	State      int                  `json:"State"`
	OrderState int                  `json:"OrderState"`
	RecvTime   string               `json:"RecvTime"`
	Symbol     string               `json:"Symbol"`
	Side       string               `json:"Side"`
	Price      *float64             `json:"Price"`
	OrderQty   *float64             `json:"OrderQty"`
	CumQty     *float64             `json:"CumQty"`
	LeavesQty  *float64             `json:"LeavesQty"`
	Details    []orderDetailPayload `json:"Details"`
}

type positionPayload struct {
	Symbol    string   `json:"Symbol"`
	Side      string   `json:"Side"`
	LeavesQty *float64 `json:"LeavesQty"`
}

type tokenPayload struct {
	ResultCode int    `json:"ResultCode"`
	Token      string `json:"Token"`
}

type walletPayload struct {
	StockAccountWallet *float64 `json:"StockAccountWallet"`
}

type sendOrderPayload struct {
	Result  int    `json:"Result"`
	OrderID string `json:"OrderId"`
}

type apiErrorPayload struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func firstPositive(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// convertBoard 将原始报文转换为 BoardSnapshot。
// kabu STATION 的 BidPrice/AskPrice 语义与买卖盘相反，检测到 bid>ask 时交换两侧。
func convertBoard(p boardPayload) BoardSnapshot {
	snap := BoardSnapshot{
		Symbol:   p.Symbol,
		Bid:      deref(p.BidPrice),
		BidQty:   deref(p.BidQty),
		Ask:      deref(p.AskPrice),
		AskQty:   deref(p.AskQty),
		Last:     deref(p.CurrentPrice),
		Open:     deref(p.OpeningPrice),
		High:     deref(p.HighPrice),
		Low:      deref(p.LowPrice),
		Volume:   deref(p.TradingVolume),
		Value:    deref(p.TradingValue),
		ValueSec: deref(p.TradingValuePerSec),
		TickSize: firstPositive(p.TickSize, p.MinPriceTick, p.PriceStep),
		Time:     parseTime(p.CurrentPriceTime),
	}

	if snap.Bid > snap.Ask && snap.Ask > 0 {
		snap.Bid, snap.Ask = snap.Ask, snap.Bid
		snap.BidQty, snap.AskQty = snap.AskQty, snap.BidQty
	}

	for _, lvl := range []*levelPayload{p.Buy1, p.Buy2, p.Buy3, p.Buy4, p.Buy5, p.Buy6, p.Buy7, p.Buy8, p.Buy9, p.Buy10} {
		if lvl == nil || lvl.Price == nil || lvl.Qty == nil {
			continue
		}
		snap.Bids = append(snap.Bids, Level{Price: *lvl.Price, Qty: *lvl.Qty})
	}
	for _, lvl := range []*levelPayload{p.Sell1, p.Sell2, p.Sell3, p.Sell4, p.Sell5, p.Sell6, p.Sell7, p.Sell8, p.Sell9, p.Sell10} {
		if lvl == nil || lvl.Price == nil || lvl.Qty == nil {
			continue
		}
		snap.Asks = append(snap.Asks, Level{Price: *lvl.Price, Qty: *lvl.Qty})
	}

	return snap
}

func convertOrder(p orderPayload) Order {
	order := Order{
		ID:         p.ID,
		State:      p.State,
		OrderState: p.OrderState,
		RecvTime:   parseTime(p.RecvTime),
		Symbol:     p.Symbol,
		Side:       p.Side,
		Price:      deref(p.Price),
		OrderQty:   deref(p.OrderQty),
		CumQty:     deref(p.CumQty),
		LeavesQty:  deref(p.LeavesQty),
	}
	for _, d := range p.Details {
		order.Details = append(order.Details, OrderDetail{
			SeqNum:       d.SeqNum,
			ID:           d.ID,
			RecType:      d.RecType,
			State:        d.State,
			Price:        deref(d.Price),
			Qty:          deref(d.Qty),
			TransactTime: parseTime(d.TransactTime),
		})
	}
	return order
}

func convertPosition(p positionPayload) Position {
	return Position{
		Symbol:    p.Symbol,
		Side:      p.Side,
		LeavesQty: deref(p.LeavesQty),
	}
}
