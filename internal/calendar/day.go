package calendar

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DayName 规范化后的英文星期名（首字母大写）
type DayName string

const (
	Sunday    DayName = "Sunday"
	Monday    DayName = "Monday"
	Tuesday   DayName = "Tuesday"
	Wednesday DayName = "Wednesday"
	Thursday  DayName = "Thursday"
	Friday    DayName = "Friday"
	Saturday  DayName = "Saturday"
)

// 按 time.Weekday 顺序排列
var weekdays = [7]DayName{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// AllDays 返回七个规范星期名
func AllDays() []DayName {
	out := make([]DayName, len(weekdays))
	copy(out, weekdays[:])
	return out
}

// FromWeekday 将 time.Weekday 转为 DayName
func FromWeekday(w time.Weekday) DayName {
	return weekdays[w]
}

// Valid 是否为七个规范星期名之一
func (d DayName) Valid() bool {
	for _, w := range weekdays {
		if d == w {
			return true
		}
	}
	return false
}

func (d DayName) String() string { return string(d) }

// NormalizeDay 去空白、转小写、首字母大写，不校验是否为合法星期名
func NormalizeDay(raw string) DayName {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// Caser 有状态，不能跨 goroutine 共享
	return DayName(cases.Title(language.English).String(trimmed))
}

// ParseDays 规范化一组星期名，未识别的值记 warn 日志并保留（永远不会匹配）
func ParseDays(raw []string, logger *zap.Logger) []DayName {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]DayName, 0, len(raw))
	for _, r := range raw {
		d := NormalizeDay(r)
		if !d.Valid() {
			logger.Warn("Unrecognized day name",
				zap.String("raw", r),
				zap.String("normalized", d.String()),
			)
		} else if string(d) != r {
			logger.Debug("Normalized day name",
				zap.String("raw", r),
				zap.String("normalized", d.String()),
			)
		}
		out = append(out, d)
	}
	return out
}

// CurrentDayName 在参考时区下取当前星期名
func CurrentDayName(clock Clock, loc *time.Location) DayName {
	if loc == nil {
		loc = time.UTC
	}
	return FromWeekday(clock.Now().In(loc).Weekday())
}

// IsWithinRateLimitWindow 返回 true 表示仍在限流窗口内（应跳过）
// forceCheck 或从未检查过时总是放行
func IsWithinRateLimitWindow(lastCheck *time.Time, now time.Time, window time.Duration, forceCheck bool) bool {
	if forceCheck || lastCheck == nil {
		return false
	}
	return now.Sub(*lastCheck) < window
}
