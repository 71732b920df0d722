package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Kabus     KabusConfig     `mapstructure:"kabus"`
	Decision  DecisionConfig  `mapstructure:"decision"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Trade     TradeConfig     `mapstructure:"trade"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// KabusConfig 描述 kabu STATION 本地网关的连接信息。
type KabusConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIPassword string        `mapstructure:"api_password"`
	Exchange    int           `mapstructure:"exchange"`
	Timeout     time.Duration `mapstructure:"timeout"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Retry       RetryConfig   `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// DecisionConfig 管理报价决策参数。Tick 为 0 时按盘口自动推断。
type DecisionConfig struct {
	Strategy          string        `mapstructure:"strategy"`
	Tick              float64       `mapstructure:"tick"`
	TPMinTicks        int           `mapstructure:"tp_min_ticks"`
	TPMaxTicks        int           `mapstructure:"tp_max_ticks"`
	SLTicks           int           `mapstructure:"sl_ticks"`
	WallAbsQty        float64       `mapstructure:"wall_abs_qty"`
	WallRelPct        float64       `mapstructure:"wall_rel_pct"`
	NearLowAllowTicks int           `mapstructure:"near_low_allow_ticks"`
	MinRoomTicks      int           `mapstructure:"min_room_ticks"`
	MaxSpreadTicks    int           `mapstructure:"max_spread_ticks"`
	MaxSpreadPct      float64       `mapstructure:"max_spread_pct"`
	ImbalanceLimit    float64       `mapstructure:"imbalance_limit"`
	MinTopNotional    float64       `mapstructure:"min_top_notional"`
	MinValuePerSec    float64       `mapstructure:"min_value_per_sec"`
	MinValuePerSecTak float64       `mapstructure:"min_value_per_sec_take"`
	MaxTimeToExit     time.Duration `mapstructure:"max_time_to_exit"`
	PriceBandLow      float64       `mapstructure:"price_band_low"`
	PriceBandHigh     float64       `mapstructure:"price_band_high"`
	StopWidenSpread   int           `mapstructure:"stop_widen_spread_ticks"`
	StopWidenImbal    float64       `mapstructure:"stop_widen_imbalance"`
	StopWidenETA      time.Duration `mapstructure:"stop_widen_eta"`
	StopPctCeiling    float64       `mapstructure:"stop_pct_ceiling"`
	SessionOpenHour   int           `mapstructure:"session_open_hour"`
}

// UniverseConfig 描述候选标的集合及行情拉取节奏。
type UniverseConfig struct {
	Symbols    []string      `mapstructure:"symbols"`
	FetchDelay time.Duration `mapstructure:"fetch_delay"`
}

// TradeConfig 控制单笔交易的数量与入场确认节奏。
type TradeConfig struct {
	Qty         float64       `mapstructure:"qty"`
	ProfitTicks int           `mapstructure:"profit_ticks"`
	FillWait    time.Duration `mapstructure:"fill_wait"`
	FillPoll    time.Duration `mapstructure:"fill_poll"`
}

// RiskConfig 管理风控参数。
type RiskConfig struct {
	DailyCap float64 `mapstructure:"daily_cap"`
}

// ExecutionConfig 控制下单行为。
type ExecutionConfig struct {
	Simulation bool `mapstructure:"simulation"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制主循环节奏与交易时段。时刻均为 "HH:MM"。
type SchedulerConfig struct {
	Timezone       string        `mapstructure:"timezone"`
	FastInterval   time.Duration `mapstructure:"fast_interval"`
	SlowInterval   time.Duration `mapstructure:"slow_interval"`
	IdleInterval   time.Duration `mapstructure:"idle_interval"`
	MorningOpen    string        `mapstructure:"morning_open"`
	MorningClose   string        `mapstructure:"morning_close"`
	AfternoonOpen  string        `mapstructure:"afternoon_open"`
	AfternoonClose string        `mapstructure:"afternoon_close"`
	MonitorPort    int           `mapstructure:"monitor_port"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Kabus.BaseURL == "" {
		err = multierr.Append(err, errors.New("kabus.base_url 不能为空"))
	}
	if c.Kabus.APIPassword == "" {
		err = multierr.Append(err, errors.New("kabus.api_password 不能为空"))
	}
	if c.Kabus.Timeout <= 0 {
		err = multierr.Append(err, errors.New("kabus.timeout 必须大于0"))
	}
	if c.Kabus.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("kabus.token_ttl 必须大于0"))
	}
	if c.Kabus.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("kabus.retry.max_attempts 必须大于0"))
	}
	if c.Kabus.Retry.MinDelay <= 0 || c.Kabus.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("kabus.retry.delay 必须为正"))
	}
	if c.Kabus.Retry.MinDelay > c.Kabus.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("kabus.retry.min_delay 不能大于 max_delay"))
	}
	if c.Decision.Strategy != "range" && c.Decision.Strategy != "scalp" {
		err = multierr.Append(err, errors.New("decision.strategy 只支持 range 或 scalp"))
	}
	if c.Decision.Tick < 0 {
		err = multierr.Append(err, errors.New("decision.tick 不能为负"))
	}
	if c.Decision.TPMinTicks <= 0 || c.Decision.TPMaxTicks < c.Decision.TPMinTicks {
		err = multierr.Append(err, errors.New("decision.tp_min_ticks/tp_max_ticks 配置不合法"))
	}
	if c.Decision.SLTicks <= 0 {
		err = multierr.Append(err, errors.New("decision.sl_ticks 必须大于0"))
	}
	if c.Decision.WallAbsQty <= 0 {
		err = multierr.Append(err, errors.New("decision.wall_abs_qty 必须大于0"))
	}
	if c.Decision.WallRelPct < 0 || c.Decision.WallRelPct > 1 {
		err = multierr.Append(err, errors.New("decision.wall_rel_pct 必须位于[0,1]"))
	}
	if c.Decision.ImbalanceLimit <= 0 {
		err = multierr.Append(err, errors.New("decision.imbalance_limit 必须大于0"))
	}
	if c.Decision.Strategy == "scalp" && c.Decision.PriceBandHigh <= c.Decision.PriceBandLow {
		err = multierr.Append(err, errors.New("decision.price_band_high 必须大于 price_band_low"))
	}
	if c.Decision.StopPctCeiling <= 0 || c.Decision.StopPctCeiling > 1 {
		err = multierr.Append(err, errors.New("decision.stop_pct_ceiling 必须位于(0,1]"))
	}
	if c.Decision.SessionOpenHour < 0 || c.Decision.SessionOpenHour > 23 {
		err = multierr.Append(err, errors.New("decision.session_open_hour 必须位于[0,23]"))
	}
	if len(c.Universe.Symbols) == 0 {
		err = multierr.Append(err, errors.New("universe.symbols 至少包含一个标的"))
	}
	if c.Universe.FetchDelay < 0 {
		err = multierr.Append(err, errors.New("universe.fetch_delay 不能为负"))
	}
	if c.Trade.Qty <= 0 {
		err = multierr.Append(err, errors.New("trade.qty 必须大于0"))
	}
	if c.Trade.ProfitTicks <= 0 {
		err = multierr.Append(err, errors.New("trade.profit_ticks 必须大于0"))
	}
	if c.Trade.FillWait <= 0 || c.Trade.FillPoll <= 0 {
		err = multierr.Append(err, errors.New("trade.fill_wait/fill_poll 必须大于0"))
	}
	if c.Trade.FillPoll > c.Trade.FillWait {
		err = multierr.Append(err, errors.New("trade.fill_poll 不能大于 fill_wait"))
	}
	if c.Risk.DailyCap <= 0 {
		err = multierr.Append(err, errors.New("risk.daily_cap 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Scheduler.FastInterval <= 0 || c.Scheduler.SlowInterval <= 0 || c.Scheduler.IdleInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler 的各项间隔必须大于0"))
	}
	for _, clock := range []string{
		c.Scheduler.MorningOpen, c.Scheduler.MorningClose,
		c.Scheduler.AfternoonOpen, c.Scheduler.AfternoonClose,
	} {
		if _, parseErr := time.Parse("15:04", clock); parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("scheduler 时刻 %q 不是合法的 HH:MM", clock))
		}
	}
	if c.Scheduler.MonitorPort < 0 || c.Scheduler.MonitorPort > 65535 {
		err = multierr.Append(err, errors.New("scheduler.monitor_port 不是合法端口"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
