package risk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/config"
	"kabuscalp/internal/kabus"
	"kabuscalp/internal/store"
)

// Governor 基于当日委托列表执行资金与并发约束：
// 当日买卖两边的成交金额合计不得突破上限，且任何在途委托存在时禁止新开仓。
// 委托列表由调用方从接口拉取后传入，Governor 本身不访问网络。
type Governor struct {
	db     *sql.DB
	cfg    config.RiskConfig
	logger *zap.Logger
}

// NewGovernor 创建风控器并初始化活动日志表。
func NewGovernor(db *sql.DB, cfg config.RiskConfig, logger *zap.Logger) (*Governor, error) {
	if db == nil {
		return nil, errors.New("risk: 数据库实例不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Governor{db: db, cfg: cfg, logger: logger}
	if err := g.initSchema(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Governor) initSchema() error {
	schema := `CREATE TABLE IF NOT EXISTS risk_activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		occurred_at TEXT NOT NULL,
		event_type TEXT NOT NULL,
		message TEXT NOT NULL,
		daily_notional REAL NOT NULL DEFAULT 0
	);`

	return store.ApplySchema(g.db, "risk_activity_log", schema)
}

// DailyNotional 累计当日全部委托的已成交金额，买卖两边都计入。
// 只统计成交明细（RecType=8），明细价格缺失时回退到委托价。
func DailyNotional(orders []kabus.Order) float64 {
	var total float64
	for _, order := range orders {
		for _, detail := range order.Details {
			if detail.RecType != kabus.RecTypeExecuted || detail.Qty <= 0 {
				continue
			}
			price := detail.Price
			if price <= 0 {
				price = order.Price
			}
			total += price * detail.Qty
		}
	}
	return total
}

// PendingExists 判断是否存在仍可能成交的委托。
// 状态 1~4 且剩余数量大于零即视为在途。
func PendingExists(orders []kabus.Order) bool {
	for _, order := range orders {
		if order.Terminal() {
			continue
		}
		if order.Leaves() > 0 {
			return true
		}
	}
	return false
}

// LatestOrder 返回接收时间最新的委托，没有任何委托时返回 ok=false。
func LatestOrder(orders []kabus.Order) (kabus.Order, bool) {
	var (
		latest kabus.Order
		found  bool
	)
	for _, order := range orders {
		if !found || order.RecvTime.After(latest.RecvTime) {
			latest = order
			found = true
		}
	}
	return latest, found
}

// CheckEntry 判断一笔拟议买入能否下单。
// 拒绝时返回的 Verdict 带有原因，结果同步写入活动日志。
func (g *Governor) CheckEntry(ctx context.Context, orders []kabus.Order, proposed float64) (Verdict, error) {
	v := Verdict{
		DailyNotional: DailyNotional(orders),
		Proposed:      proposed,
	}

	latest, hasLatest := LatestOrder(orders)

	switch {
	case PendingExists(orders):
		v.Reason = "存在在途委托，禁止新开仓"
	case hasLatest && !latest.Terminal():
		// 撤单处理中等剩余数量为零的存活委托也视为未终结。
		v.Reason = fmt.Sprintf("最近一笔委托 %s 尚未终结", latest.ID)
	case g.cfg.DailyCap > 0 && v.DailyNotional+proposed > g.cfg.DailyCap:
		v.Reason = fmt.Sprintf("当日成交金额 %.0f 加拟议 %.0f 将突破上限 %.0f",
			v.DailyNotional, proposed, g.cfg.DailyCap)
	default:
		v.Allowed = true
	}

	if !v.Allowed {
		g.logger.Warn("风控拒绝入场",
			zap.String("reason", v.Reason),
			zap.Float64("daily_notional", v.DailyNotional),
			zap.Float64("proposed", proposed),
		)
		if err := g.logEvent(ctx, "entry_rejected", v.Reason, v.DailyNotional); err != nil {
			return v, err
		}
	}

	return v, nil
}

// LogEvent 记录一条风控事件。
func (g *Governor) LogEvent(ctx context.Context, eventType, message string, dailyNotional float64) error {
	if eventType == "" {
		return errors.New("risk: eventType 不能为空")
	}
	return g.logEvent(ctx, eventType, message, dailyNotional)
}

func (g *Governor) logEvent(ctx context.Context, eventType, message string, dailyNotional float64) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO risk_activity_log (occurred_at, event_type, message, daily_notional)
		 VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), eventType, message, dailyNotional,
	)
	if err != nil {
		return fmt.Errorf("risk: 写入风控事件失败: %w", err)
	}
	return nil
}
