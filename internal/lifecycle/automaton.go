package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/config"
	"kabuscalp/internal/decision"
	"kabuscalp/internal/kabus"
	"kabuscalp/internal/position"
)

// Automaton 驱动单仓生命周期：
// Idle → EntrySubmitted → Holding → ExitSubmitted → Idle。
// 状态以持久化仓库为唯一事实来源，每轮循环开始时重新读取，
// 因此进程在任意两轮之间重启都不会丢仓。
type Automaton struct {
	trader trader
	store  stateStore
	cfg    config.TradeConfig
	logger *zap.Logger
}

// NewAutomaton 创建生命周期状态机。
func NewAutomaton(t trader, store stateStore, cfg config.TradeConfig, logger *zap.Logger) (*Automaton, error) {
	if t == nil {
		return nil, errors.New("lifecycle: 下单通道不能为空")
	}
	if store == nil {
		return nil, errors.New("lifecycle: 状态仓库不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Automaton{trader: t, store: store, cfg: cfg, logger: logger}, nil
}

// Phase 读取持久化状态并返回当前阶段。
// 状态读取失败按无仓处理，保守地回到 Idle 而不是臆断持仓。
func (a *Automaton) Phase(ctx context.Context) (string, position.State, error) {
	st, found, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Error("读取仓位状态失败，按无仓处理", zap.Error(err))
		return PhaseIdle, position.State{}, err
	}
	if !found {
		return PhaseIdle, position.State{}, nil
	}
	if st.ExitOrderID != "" {
		return PhaseExitSubmitted, st, nil
	}
	return PhaseHolding, st, nil
}

// TryEnter 在 Idle 状态下尝试入场。
// 风控与候选选择由调用方完成，这里只校验方案的即时可达性：
// 买入价必须不低于实时卖一价，否则本轮放弃。
// 成交确认后先落库再挂止盈单，任何一步失败都不会留下幽灵仓位。
func (a *Automaton) TryEnter(ctx context.Context, plan decision.PricePlan, liveAsk float64) (bool, error) {
	if _, found, err := a.store.Load(ctx); err != nil {
		return false, err
	} else if found {
		return false, nil
	}

	if liveAsk <= 0 || plan.Buy < liveAsk {
		a.logger.Debug("买入价低于实时卖一，放弃入场",
			zap.String("symbol", plan.Symbol),
			zap.Float64("buy", plan.Buy),
			zap.Float64("ask", liveAsk),
		)
		return false, nil
	}

	qty := a.cfg.Qty
	orderID, err := a.trader.BuyLimit(ctx, plan.Symbol, qty, plan.Buy)
	if err != nil {
		return false, fmt.Errorf("lifecycle: 提交买入委托失败: %w", err)
	}

	a.logger.Info("已提交入场委托，等待成交",
		zap.String("phase", PhaseEntrySubmitted),
		zap.String("symbol", plan.Symbol),
		zap.String("order_id", orderID),
		zap.Float64("buy", plan.Buy),
	)

	filled, err := a.waitFill(ctx, orderID)
	if err != nil {
		return false, err
	}

	if !filled {
		// 超时未全部成交即撤单回到 Idle。
		// 部分成交也按未成交处理，残余股份由下一轮持仓核对兜底。
		if cancelErr := a.trader.Cancel(ctx, orderID); cancelErr != nil {
			a.logger.Error("入场超时撤单失败", zap.String("order_id", orderID), zap.Error(cancelErr))
		}
		a.logger.Info("入场超时撤单，回到空仓",
			zap.String("symbol", plan.Symbol),
			zap.String("order_id", orderID),
		)
		return false, nil
	}

	st := position.State{
		Symbol:     plan.Symbol,
		Qty:        qty,
		EntryPrice: plan.Buy,
		StopPrice:  plan.Stop,
		EnteredAt:  time.Now().UTC(),
	}
	if err := a.store.Save(ctx, st); err != nil {
		return false, err
	}

	a.logger.Info("入场成交，转入持仓",
		zap.String("symbol", plan.Symbol),
		zap.Float64("entry", st.EntryPrice),
		zap.Float64("stop", st.StopPrice),
	)

	// 止盈单按方案价直接挂出，失败不致命，下一轮持仓管理会重挂。
	if exitID, exitErr := a.trader.SellLimit(ctx, plan.Symbol, qty, plan.Sell); exitErr != nil {
		a.logger.Warn("止盈委托提交失败，待下一轮重试", zap.Error(exitErr))
	} else {
		st.ExitOrderID = exitID
		if err := a.store.Save(ctx, st); err != nil {
			return true, err
		}
	}

	return true, nil
}

// waitFill 在限定窗口内轮询订单状态，全部成交返回 true。
// 单仓模式下阻塞整个进程是有意的取舍。
func (a *Automaton) waitFill(ctx context.Context, orderID string) (bool, error) {
	wait := a.cfg.FillWait
	if wait <= 0 {
		wait = 30 * time.Second
	}
	poll := a.cfg.FillPoll
	if poll <= 0 {
		poll = 2 * time.Second
	}

	deadline := time.Now().Add(wait)
	for {
		order, found, err := a.trader.OrderByID(ctx, orderID)
		if err != nil {
			a.logger.Warn("查询入场委托失败", zap.String("order_id", orderID), zap.Error(err))
		} else if found && order.Filled() {
			return true, nil
		}

		if time.Now().After(deadline) {
			return false, nil
		}

		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// Manage 在持仓状态下推进退出：
// 实时买一触及止损价时撤掉在途退出单并以买一价挂止损卖出，
// 否则撤旧挂新，把止盈单维持在 入场价+利润档数×呼值 上。
// 持仓数量清零说明退出已完成，清除状态回到 Idle。
func (a *Automaton) Manage(ctx context.Context, st position.State, snap kabus.BoardSnapshot, tick float64) (bool, error) {
	holdings, err := a.trader.Holdings(ctx, st.Symbol)
	if err != nil {
		return false, fmt.Errorf("lifecycle: 查询持仓失败: %w", err)
	}

	if holdings <= 0 {
		if err := a.store.Clear(ctx, "exit_confirmed", st); err != nil {
			return false, err
		}
		a.logger.Info("退出成交确认，回到空仓", zap.String("symbol", st.Symbol))
		return true, nil
	}

	if snap.Bid <= 0 || tick <= 0 {
		return false, nil
	}

	if snap.Bid <= st.StopPrice {
		return false, a.submitStop(ctx, st, snap.Bid, holdings)
	}

	return false, a.refreshTakeProfit(ctx, st, holdings, tick)
}

func (a *Automaton) submitStop(ctx context.Context, st position.State, bid, qty float64) error {
	if st.ExitOrderID != "" {
		if err := a.trader.Cancel(ctx, st.ExitOrderID); err != nil {
			a.logger.Warn("撤销止盈单失败", zap.String("order_id", st.ExitOrderID), zap.Error(err))
		}
	}

	exitID, err := a.trader.SellLimit(ctx, st.Symbol, qty, bid)
	if err != nil {
		return fmt.Errorf("lifecycle: 提交止损卖出失败: %w", err)
	}

	a.logger.Warn("触及止损，以买一价离场",
		zap.String("symbol", st.Symbol),
		zap.Float64("bid", bid),
		zap.Float64("stop", st.StopPrice),
		zap.String("order_id", exitID),
	)

	st.ExitOrderID = exitID
	return a.store.Save(ctx, st)
}

func (a *Automaton) refreshTakeProfit(ctx context.Context, st position.State, qty, tick float64) error {
	if st.ExitOrderID != "" {
		if err := a.trader.Cancel(ctx, st.ExitOrderID); err != nil {
			a.logger.Warn("撤销旧止盈单失败", zap.String("order_id", st.ExitOrderID), zap.Error(err))
		}
	}

	profitTicks := a.cfg.ProfitTicks
	if profitTicks <= 0 {
		profitTicks = 1
	}
	target := st.EntryPrice + float64(profitTicks)*tick

	exitID, err := a.trader.SellLimit(ctx, st.Symbol, qty, target)
	if err != nil {
		return fmt.Errorf("lifecycle: 提交止盈卖出失败: %w", err)
	}

	st.ExitOrderID = exitID
	return a.store.Save(ctx, st)
}
