package core

import "time"

// PeriodStart returns the start of the budget window containing now:
// daily is midnight today, weekly the most recent Monday at midnight, and
// monthly the first of the current month. The window is always anchored at
// the current clock, never at budget creation time.
func (p BudgetPeriod) PeriodStart(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return StartOfDay(now)
	case PeriodWeekly:
		return startOfWeek(now)
	default:
		return StartOfMonth(now)
	}
}

// SummaryWindow resolves the analytics window for a period anchored at now:
// daily is [today, today], weekly [today-7d, today] and monthly
// [first-of-month, today]. Both bounds are inclusive.
func (p BudgetPeriod) SummaryWindow(now time.Time) (start, end time.Time) {
	end = EndOfDay(now)
	switch p {
	case PeriodDaily:
		start = StartOfDay(now)
	case PeriodWeekly:
		start = StartOfDay(now.AddDate(0, 0, -7))
	default:
		start = StartOfMonth(now)
	}
	return start, end
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// StartOfMonth returns midnight on the first of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// PrevMonthBounds returns the first instant and the last instant of the
// calendar month preceding now's month.
func PrevMonthBounds(now time.Time) (start, end time.Time) {
	firstOfThis := StartOfMonth(now)
	end = firstOfThis.Add(-time.Nanosecond)
	start = StartOfMonth(end)
	return start, end
}

// MonthBounds returns the first instant of the month i months before now's
// month and the corresponding month end (or now's end of day for i == 0).
func MonthBounds(now time.Time, i int) (start, end time.Time) {
	start = StartOfMonth(now).AddDate(0, -i, 0)
	if i == 0 {
		return start, EndOfDay(now)
	}
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func startOfWeek(t time.Time) time.Time {
	// time.Weekday numbers Sunday as 0; the week here starts on Monday.
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t.AddDate(0, 0, -offset))
}
