package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kabuscalp/internal/config"
	"kabuscalp/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 按交易时段驱动主循环，收盘后自然退出。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("strategy", a.cfg.Decision.Strategy),
		zap.Strings("universe", a.cfg.Universe.Symbols),
		zap.Bool("simulation", a.cfg.Execution.Simulation),
	)

	orch, err := newOrchestrator(orchestratorConfig{
		kabus:     a.cfg.Kabus,
		decision:  a.cfg.Decision,
		universe:  a.cfg.Universe,
		trade:     a.cfg.Trade,
		risk:      a.cfg.Risk,
		execution: a.cfg.Execution,
	}, a.logger, a.store)
	if err != nil {
		return err
	}

	clock, err := newSessionClock(a.cfg.Scheduler)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if port := a.cfg.Scheduler.MonitorPort; port > 0 {
		g.Go(func() error {
			return runMonitorServer(gctx, orch.Monitor(), port, a.logger)
		})
	}

	g.Go(func() error {
		// 主循环正常结束（收盘退出）时也要联动关停监控服务，
		// errgroup 只在出错时取消上下文。
		defer cancel()
		return a.loop(gctx, orch, clock)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) loop(ctx context.Context, orch *orchestrator, clock *sessionClock) error {
	for {
		phase := clock.phase(time.Now())
		if phase == phaseAfterClose {
			a.logger.Info("已过收盘时刻，系统退出")
			return nil
		}

		if phase == phaseTrading {
			if err := orch.Tick(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				a.logger.Error("执行决策循环失败", zap.Error(err))
			}
		} else {
			a.logger.Debug("等待交易时段", zap.String("phase", phase.String()))
		}

		timer := time.NewTimer(clock.interval(phase))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-timer.C:
		}
	}
}
