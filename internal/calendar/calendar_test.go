package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalizeDay(t *testing.T) {
	cases := map[string]DayName{
		"monday":       Monday,
		"  TUESDAY ":   Tuesday,
		"wEdNeSdAy":    Wednesday,
		"Sunday":       Sunday,
		"":             "",
		"funday":       "Funday",
		"\tsaturday\n": Saturday,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeDay(raw), "raw=%q", raw)
	}
	assert.False(t, NormalizeDay("funday").Valid())
	assert.True(t, NormalizeDay("friday").Valid())
}

func TestParseDays_LogsUnrecognized(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	days := ParseDays([]string{"monday", "Fri", " thursday"}, zap.New(core))

	require.Equal(t, []DayName{Monday, "Fri", Thursday}, days)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Unrecognized day name", logs.All()[0].Message)
}

func TestCurrentDayName_UsesReferenceLocation(t *testing.T) {
	// 2026-03-02 是周一；UTC 23:30 在东京已是周二
	clock := NewFakeClock(time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC))
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	assert.Equal(t, Monday, CurrentDayName(clock, time.UTC))
	assert.Equal(t, Tuesday, CurrentDayName(clock, tokyo))
	assert.Equal(t, Monday, CurrentDayName(clock, nil))
}

func TestIsWithinRateLimitWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	fiveMinAgo := now.Add(-5 * time.Minute)
	twentyMinAgo := now.Add(-20 * time.Minute)
	window := 15 * time.Minute

	assert.True(t, IsWithinRateLimitWindow(&fiveMinAgo, now, window, false))
	assert.False(t, IsWithinRateLimitWindow(&fiveMinAgo, now, window, true))
	assert.False(t, IsWithinRateLimitWindow(&twentyMinAgo, now, window, false))
	assert.False(t, IsWithinRateLimitWindow(nil, now, window, false))
}

func TestResolveDayBounds(t *testing.T) {
	ref := time.Date(2026, 3, 2, 14, 5, 6, 7, time.UTC)
	start, end := ResolveDayBounds(ref)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
}

func TestEndOfDay_DSTTransition(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 2026-03-29 欧洲夏令时开始，当天只有 23 小时
	ref := time.Date(2026, 3, 29, 12, 0, 0, 0, berlin)
	start, end := ResolveDayBounds(ref)
	assert.Equal(t, 23*time.Hour-time.Millisecond, end.Sub(start))
	assert.Equal(t, 29, end.Day())
}

func TestWeekBounds(t *testing.T) {
	// 2026-03-04 周三
	ref := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfWeek(ref))
	assert.Equal(t, time.Date(2026, 3, 7, 23, 59, 59, int(999*time.Millisecond), time.UTC), EndOfWeek(ref))

	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sunday, StartOfWeek(sunday))
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
	c.Set(start)
	assert.Equal(t, start, c.Now())
}
