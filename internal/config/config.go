package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "kabuscalp"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("kabus.base_url", "http://localhost:18080/kabusapi")
	v.SetDefault("kabus.exchange", 1)
	v.SetDefault("kabus.timeout", "5s")
	v.SetDefault("kabus.token_ttl", "12h")
	v.SetDefault("kabus.retry.max_attempts", 3)
	v.SetDefault("kabus.retry.min_delay", "300ms")
	v.SetDefault("kabus.retry.max_delay", "3s")

	v.SetDefault("decision.strategy", "range")
	v.SetDefault("decision.tick", 0)
	v.SetDefault("decision.tp_min_ticks", 1)
	v.SetDefault("decision.tp_max_ticks", 3)
	v.SetDefault("decision.sl_ticks", 1)
	v.SetDefault("decision.wall_abs_qty", 300000)
	v.SetDefault("decision.wall_rel_pct", 0.001)
	v.SetDefault("decision.near_low_allow_ticks", 3)
	v.SetDefault("decision.min_room_ticks", 2)
	v.SetDefault("decision.max_spread_ticks", 3)
	v.SetDefault("decision.max_spread_pct", 0.02)
	v.SetDefault("decision.imbalance_limit", 2.0)
	v.SetDefault("decision.min_top_notional", 0)
	v.SetDefault("decision.min_value_per_sec", 0)
	v.SetDefault("decision.min_value_per_sec_take", 0)
	v.SetDefault("decision.max_time_to_exit", "15s")
	v.SetDefault("decision.price_band_low", 9.0)
	v.SetDefault("decision.price_band_high", 10.0)
	v.SetDefault("decision.stop_widen_spread_ticks", 2)
	v.SetDefault("decision.stop_widen_imbalance", 1.5)
	v.SetDefault("decision.stop_widen_eta", "10s")
	v.SetDefault("decision.stop_pct_ceiling", 0.03)
	v.SetDefault("decision.session_open_hour", 9)

	v.SetDefault("universe.symbols", []string{"9973@1"})
	v.SetDefault("universe.fetch_delay", "200ms")

	v.SetDefault("trade.qty", 100)
	v.SetDefault("trade.profit_ticks", 1)
	v.SetDefault("trade.fill_wait", "30s")
	v.SetDefault("trade.fill_poll", "2s")

	v.SetDefault("risk.daily_cap", 1000000)

	v.SetDefault("execution.simulation", false)

	v.SetDefault("database.path", "data/kabuscalp.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("scheduler.timezone", "Asia/Tokyo")
	v.SetDefault("scheduler.fast_interval", "5s")
	v.SetDefault("scheduler.slow_interval", "60s")
	v.SetDefault("scheduler.idle_interval", "300s")
	v.SetDefault("scheduler.morning_open", "09:10")
	v.SetDefault("scheduler.morning_close", "11:30")
	v.SetDefault("scheduler.afternoon_open", "12:30")
	v.SetDefault("scheduler.afternoon_close", "15:00")
	v.SetDefault("scheduler.monitor_port", 0)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
