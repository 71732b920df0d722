package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/config"
	"kabuscalp/internal/decision"
	"kabuscalp/internal/execution"
	"kabuscalp/internal/feature"
	"kabuscalp/internal/kabus"
	"kabuscalp/internal/lifecycle"
	"kabuscalp/internal/monitor"
	"kabuscalp/internal/position"
	"kabuscalp/internal/risk"
	"kabuscalp/internal/store"
)

// marketData 覆盖编排器需要的行情与余力查询。
type marketData interface {
	GetBoard(ctx context.Context, symbol string) (kabus.BoardSnapshot, error)
	GetCashBalance(ctx context.Context) (float64, error)
}

// orchestrator 串联一轮完整的决策循环：
// 读状态 → 拉行情 → 选候选 → 过风控 → 驱动状态机 → 落监控。
// 全程单线程，一轮结束才开始下一轮。
type orchestrator struct {
	client    marketData
	trader    execution.Trader
	ranker    *decision.Ranker
	automaton *lifecycle.Automaton
	governor  *risk.Governor
	monitor   *monitor.Service
	logger    *zap.Logger

	universe config.UniverseConfig
	decision config.DecisionConfig
	trade    config.TradeConfig
}

type orchestratorConfig struct {
	kabus     config.KabusConfig
	decision  config.DecisionConfig
	universe  config.UniverseConfig
	trade     config.TradeConfig
	risk      config.RiskConfig
	execution config.ExecutionConfig
}

func newOrchestrator(cfg orchestratorConfig, logger *zap.Logger, store *store.Store) (*orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := kabus.NewClient(cfg.kabus, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化网关客户端失败: %w", err)
	}

	var trader execution.Trader
	if cfg.execution.Simulation {
		logger.Info("下单通道处于模拟模式")
		trader = execution.NewSimulator(logger)
	} else {
		gateway, gwErr := execution.NewGateway(client, logger)
		if gwErr != nil {
			return nil, fmt.Errorf("初始化下单通道失败: %w", gwErr)
		}
		trader = gateway
	}

	engine, err := decision.NewEngine(cfg.decision.Strategy)
	if err != nil {
		return nil, fmt.Errorf("初始化决策引擎失败: %w", err)
	}

	repo, err := position.NewRepository(store.DB(), logger)
	if err != nil {
		return nil, fmt.Errorf("初始化仓位仓库失败: %w", err)
	}

	automaton, err := lifecycle.NewAutomaton(trader, repo, cfg.trade, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化状态机失败: %w", err)
	}

	governor, err := risk.NewGovernor(store.DB(), cfg.risk, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化风控器失败: %w", err)
	}

	monitorSvc, err := monitor.NewService(store, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	return &orchestrator{
		client:    client,
		trader:    trader,
		ranker:    decision.NewRanker(engine, cfg.decision),
		automaton: automaton,
		governor:  governor,
		monitor:   monitorSvc,
		logger:    logger,
		universe:  cfg.universe,
		decision:  cfg.decision,
		trade:     cfg.trade,
	}, nil
}

func (o *orchestrator) Monitor() *monitor.Service {
	return o.monitor
}

// Tick 执行一轮决策循环。
// 协作方调用失败只影响本轮，状态不发生任何变更。
func (o *orchestrator) Tick(ctx context.Context) error {
	phase, st, err := o.automaton.Phase(ctx)
	if err != nil {
		// 状态读取失败保守地按无仓处理，但本轮不做任何动作。
		o.monitor.RecordError(ctx, "读取仓位状态失败", err, nil)
		return err
	}

	var tickErr error
	if phase != lifecycle.PhaseIdle {
		tickErr = o.manageHolding(ctx, phase, st)
	} else {
		tickErr = o.seekEntry(ctx)
	}

	// 余力每轮都记一笔，持仓管理轮也不例外。
	o.recordWallet(ctx)

	return tickErr
}

func (o *orchestrator) manageHolding(ctx context.Context, phase string, st position.State) error {
	snap, err := o.client.GetBoard(ctx, st.Symbol)
	if err != nil {
		o.monitor.RecordError(ctx, "拉取持仓标的行情失败", err, map[string]interface{}{"symbol": st.Symbol})
		return err
	}

	tick := feature.InferTick(snap, o.decision.Tick)
	cleared, err := o.automaton.Manage(ctx, st, snap, tick)
	if err != nil {
		o.monitor.RecordError(ctx, "持仓管理失败", err, map[string]interface{}{"symbol": st.Symbol})
		return err
	}

	if cleared {
		o.monitor.RecordTransition(ctx, st.Symbol, phase, lifecycle.PhaseIdle, "退出成交确认")
	}

	return nil
}

func (o *orchestrator) seekEntry(ctx context.Context) error {
	snaps, err := o.fetchUniverse(ctx)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return nil
	}

	cand, ok := o.ranker.Pick(snaps)
	if !ok {
		o.logger.Debug("本轮无可交易候选", zap.Int("snapshots", len(snaps)))
		return nil
	}
	o.monitor.RecordPlan(ctx, cand.Plan)

	orders, err := o.trader.Orders(ctx)
	if err != nil {
		o.monitor.RecordError(ctx, "查询当日订单失败", err, nil)
		return err
	}

	proposed := cand.Plan.Buy * o.trade.Qty
	verdict, err := o.governor.CheckEntry(ctx, orders, proposed)
	if err != nil {
		return err
	}
	o.monitor.RecordRisk(ctx, cand.Plan.Symbol, verdict)
	if !verdict.Allowed {
		return nil
	}

	entered, err := o.automaton.TryEnter(ctx, cand.Plan, cand.Snapshot.Ask)
	if err != nil {
		o.monitor.RecordError(ctx, "入场失败", err, map[string]interface{}{"symbol": cand.Plan.Symbol})
		return err
	}

	if entered {
		o.monitor.RecordTransition(ctx, cand.Plan.Symbol, lifecycle.PhaseIdle, lifecycle.PhaseHolding, "入场成交")
	}

	return nil
}

// fetchUniverse 顺序拉取候选标的行情，固定间隔以尊重网关限速。
// 单个标的失败只跳过该标的，不中断整轮。
func (o *orchestrator) fetchUniverse(ctx context.Context) ([]kabus.BoardSnapshot, error) {
	snaps := make([]kabus.BoardSnapshot, 0, len(o.universe.Symbols))

	for i, symbol := range o.universe.Symbols {
		if i > 0 && o.universe.FetchDelay > 0 {
			timer := time.NewTimer(o.universe.FetchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		snap, err := o.client.GetBoard(ctx, symbol)
		if err != nil {
			o.logger.Warn("拉取行情失败，跳过该标的", zap.String("symbol", symbol), zap.Error(err))
			o.monitor.RecordError(ctx, "拉取行情失败", err, map[string]interface{}{"symbol": symbol})
			continue
		}

		vps := feature.ValuePerSecond(snap, o.decision.SessionOpenHour)
		o.monitor.RecordBoard(ctx, snap, vps)
		snaps = append(snaps, snap)
	}

	return snaps, nil
}

func (o *orchestrator) recordWallet(ctx context.Context) {
	cash, err := o.client.GetCashBalance(ctx)
	if err != nil {
		o.logger.Warn("查询买付余力失败", zap.Error(err))
		return
	}
	o.logger.Info("现物买付余力", zap.Float64("cash", cash))
	o.monitor.RecordWallet(ctx, cash)
}
