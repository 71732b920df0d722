package lifecycle

import (
	"context"

	"kabuscalp/internal/kabus"
	"kabuscalp/internal/position"
)

// 生命周期阶段，仅用于日志与监控展示。
const (
	PhaseIdle           = "idle"
	PhaseEntrySubmitted = "entry_submitted"
	PhaseHolding        = "holding"
	PhaseExitSubmitted  = "exit_submitted"
)

type trader interface {
	BuyLimit(ctx context.Context, symbol string, qty, price float64) (string, error)
	SellLimit(ctx context.Context, symbol string, qty, price float64) (string, error)
	Cancel(ctx context.Context, orderID string) error
	OrderByID(ctx context.Context, orderID string) (kabus.Order, bool, error)
	Holdings(ctx context.Context, symbol string) (float64, error)
}

type stateStore interface {
	Load(ctx context.Context) (position.State, bool, error)
	Save(ctx context.Context, st position.State) error
	Clear(ctx context.Context, eventType string, st position.State) error
}
