package app

import (
	"fmt"
	"time"

	"kabuscalp/internal/config"
)

// sessionPhase 表示东京市场的交易时段阶段。
type sessionPhase int

const (
	phasePreOpen sessionPhase = iota
	phaseTrading
	phaseBreak
	phaseAfterClose
)

func (p sessionPhase) String() string {
	switch p {
	case phasePreOpen:
		return "pre_open"
	case phaseTrading:
		return "trading"
	case phaseBreak:
		return "break"
	default:
		return "after_close"
	}
}

// sessionClock 根据配置的前后场窗口判断当前阶段并给出轮询间隔。
type sessionClock struct {
	loc            *time.Location
	morningOpen    int
	morningClose   int
	afternoonOpen  int
	afternoonClose int
	cfg            config.SchedulerConfig
}

func newSessionClock(cfg config.SchedulerConfig) (*sessionClock, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app: 加载时区 %q 失败: %w", cfg.Timezone, err)
	}

	c := &sessionClock{loc: loc, cfg: cfg}
	for _, item := range []struct {
		clock string
		dst   *int
	}{
		{cfg.MorningOpen, &c.morningOpen},
		{cfg.MorningClose, &c.morningClose},
		{cfg.AfternoonOpen, &c.afternoonOpen},
		{cfg.AfternoonClose, &c.afternoonClose},
	} {
		t, parseErr := time.Parse("15:04", item.clock)
		if parseErr != nil {
			return nil, fmt.Errorf("app: 时刻 %q 不是合法的 HH:MM: %w", item.clock, parseErr)
		}
		*item.dst = t.Hour()*60 + t.Minute()
	}

	return c, nil
}

func (c *sessionClock) phase(now time.Time) sessionPhase {
	local := now.In(c.loc)
	minute := local.Hour()*60 + local.Minute()

	switch {
	case minute < c.morningOpen:
		return phasePreOpen
	case minute < c.morningClose:
		return phaseTrading
	case minute < c.afternoonOpen:
		return phaseBreak
	case minute < c.afternoonClose:
		return phaseTrading
	default:
		return phaseAfterClose
	}
}

func (c *sessionClock) interval(phase sessionPhase) time.Duration {
	switch phase {
	case phaseTrading:
		return c.cfg.FastInterval
	case phaseBreak:
		return c.cfg.SlowInterval
	default:
		return c.cfg.IdleInterval
	}
}
