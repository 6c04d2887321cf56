package goal

import (
	"time"

	"focusflow/internal/calendar"
	"focusflow/internal/model"
)

// Window 目标的计数区间，Start 和 End 都包含
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains 判断 t 是否落在区间内（两端包含）
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow 按目标类型解析当前计数区间。
// 需要开始日期却没有、或类型未知时返回 ok=false
func ResolveWindow(goal *model.ProjectGoal, now time.Time, loc *time.Location) (Window, bool) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	switch goal.GoalType {
	case model.GoalTypeDaily:
		start, end := calendar.ResolveDayBounds(now)
		return Window{Start: start, End: end}, true

	case model.GoalTypeWeekly:
		return Window{Start: calendar.StartOfWeek(now), End: calendar.EndOfWeek(now)}, true

	case model.GoalTypeSingleDate:
		if goal.StartDate == nil {
			return Window{}, false
		}
		start, end := calendar.ResolveDayBounds(goal.StartDate.In(loc))
		return Window{Start: start, End: end}, true

	case model.GoalTypeDatePeriod:
		if goal.StartDate == nil {
			return Window{}, false
		}
		end := calendar.EndOfDay(now)
		if goal.EndDate != nil {
			end = calendar.EndOfDay(goal.EndDate.In(loc))
		}
		return Window{Start: calendar.StartOfDay(goal.StartDate.In(loc)), End: end}, true

	default:
		return Window{}, false
	}
}
