package app

import (
	"testing"
	"time"

	"kabuscalp/internal/config"
)

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Timezone:       "Asia/Tokyo",
		FastInterval:   5 * time.Second,
		SlowInterval:   60 * time.Second,
		IdleInterval:   300 * time.Second,
		MorningOpen:    "09:10",
		MorningClose:   "11:30",
		AfternoonOpen:  "12:30",
		AfternoonClose: "15:00",
	}
}

func TestSessionClock_Phases(t *testing.T) {
	clock, err := newSessionClock(testSchedulerConfig())
	if err != nil {
		t.Fatalf("newSessionClock: %v", err)
	}

	jst := clock.loc
	day := func(hour, minute int) time.Time {
		return time.Date(2026, 1, 5, hour, minute, 0, 0, jst)
	}

	cases := []struct {
		at   time.Time
		want sessionPhase
	}{
		{day(8, 0), phasePreOpen},
		{day(9, 9), phasePreOpen},
		{day(9, 10), phaseTrading},
		{day(11, 29), phaseTrading},
		{day(11, 30), phaseBreak},
		{day(12, 29), phaseBreak},
		{day(12, 30), phaseTrading},
		{day(14, 59), phaseTrading},
		{day(15, 0), phaseAfterClose},
		{day(18, 0), phaseAfterClose},
	}

	for _, tc := range cases {
		if got := clock.phase(tc.at); got != tc.want {
			t.Errorf("phase(%s) = %s, want %s", tc.at.Format("15:04"), got, tc.want)
		}
	}
}

func TestSessionClock_UTCInputConverted(t *testing.T) {
	clock, err := newSessionClock(testSchedulerConfig())
	if err != nil {
		t.Fatalf("newSessionClock: %v", err)
	}

	// 01:00 UTC = 10:00 JST, inside the morning session.
	at := time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC)
	if got := clock.phase(at); got != phaseTrading {
		t.Fatalf("expected trading for 10:00 JST, got %s", got)
	}
}

func TestSessionClock_Intervals(t *testing.T) {
	clock, err := newSessionClock(testSchedulerConfig())
	if err != nil {
		t.Fatalf("newSessionClock: %v", err)
	}

	if got := clock.interval(phaseTrading); got != 5*time.Second {
		t.Errorf("trading interval = %v", got)
	}
	if got := clock.interval(phaseBreak); got != 60*time.Second {
		t.Errorf("break interval = %v", got)
	}
	if got := clock.interval(phasePreOpen); got != 300*time.Second {
		t.Errorf("pre-open interval = %v", got)
	}
}

func TestSessionClock_RejectsBadInput(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.Timezone = "Mars/Olympus"
	if _, err := newSessionClock(cfg); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	cfg = testSchedulerConfig()
	cfg.MorningOpen = "9時10分"
	if _, err := newSessionClock(cfg); err == nil {
		t.Fatal("expected error for malformed clock")
	}
}
