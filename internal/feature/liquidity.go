package feature

import (
	"time"

	"kabuscalp/internal/kabus"
)

// 瞬时成交速度通常低于当日均值，估算时乘以阻尼系数压低，
// 避免给出过于乐观的退出时间。这是有意保留的保守偏差。
const velocityDamping = 0.35

// ValuePerSecond 估算每秒成交金额。
// 网关直接给出每秒口径时采用原值，否则用当日累计成交金额摊到
// 开盘以来的秒数上再乘阻尼系数。时间戳缺失或异常时按 1 秒处理，
// 防止除零。
func ValuePerSecond(snap kabus.BoardSnapshot, sessionOpenHour int) float64 {
	if snap.ValueSec > 0 {
		return snap.ValueSec
	}
	if snap.Value <= 0 {
		return 0
	}

	elapsed := sessionElapsedSeconds(snap.Time, sessionOpenHour)
	return snap.Value / elapsed * velocityDamping
}

// TimeToExit 估算按当前速度吃掉 price×qty 档位所需的秒数。
// 速度无效时返回负值，由调用方视为不可用。
func TimeToExit(price, qty, valuePerSec float64) float64 {
	if valuePerSec <= 0 || price <= 0 || qty <= 0 {
		return -1
	}
	return price * qty / valuePerSec
}

func sessionElapsedSeconds(ts time.Time, openHour int) float64 {
	if ts.IsZero() {
		return 1
	}
	if openHour < 0 || openHour > 23 {
		openHour = 9
	}
	open := time.Date(ts.Year(), ts.Month(), ts.Day(), openHour, 0, 0, 0, ts.Location())
	elapsed := ts.Sub(open).Seconds()
	if elapsed < 1 {
		return 1
	}
	return elapsed
}
