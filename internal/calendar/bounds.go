package calendar

import "time"

// StartOfDay 返回 t 所在时区当天 00:00:00
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay 返回 t 所在时区当天 23:59:59.999
// 按日历日推进到次日零点再减 1ms，夏令时切换日也正确
func EndOfDay(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	return next.Add(-time.Millisecond)
}

// ResolveDayBounds 返回 [当天零点, 当天 23:59:59.999]，两端都包含
// 生成日志的判重和目标重算都必须用这一个边界定义
func ResolveDayBounds(ref time.Time) (time.Time, time.Time) {
	return StartOfDay(ref), EndOfDay(ref)
}

// StartOfWeek 返回 t 所在周的周日零点
func StartOfWeek(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

// EndOfWeek 返回 t 所在周周六 23:59:59.999
func EndOfWeek(t time.Time) time.Time {
	sunday := StartOfWeek(t)
	return EndOfDay(time.Date(sunday.Year(), sunday.Month(), sunday.Day()+6, 0, 0, 0, 0, sunday.Location()))
}
