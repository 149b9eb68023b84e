package llmcontext

import (
	"strings"
	"time"
)

// Period is the canonical tag for a date range.
type Period string

// Canonical periods.
const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodTomorrow  Period = "tomorrow"
	PeriodThisWeek  Period = "thisWeek"
	PeriodLastWeek  Period = "lastWeek"
	PeriodNextWeek  Period = "nextWeek"
	PeriodThisMonth Period = "thisMonth"
	PeriodLastMonth Period = "lastMonth"
	PeriodNextMonth Period = "nextMonth"
	PeriodThisYear  Period = "thisYear"
	PeriodLastYear  Period = "lastYear"
	PeriodCustom    Period = "custom"
)

var periodAliases = map[string]Period{
	"today":     PeriodToday,
	"yesterday": PeriodYesterday,
	"tomorrow":  PeriodTomorrow,
	"thisweek":  PeriodThisWeek,
	"lastweek":  PeriodLastWeek,
	"pastweek":  PeriodLastWeek,
	"nextweek":  PeriodNextWeek,
	"thismonth": PeriodThisMonth,
	"lastmonth": PeriodLastMonth,
	"pastmonth": PeriodLastMonth,
	"nextmonth": PeriodNextMonth,
	"thisyear":  PeriodThisYear,
	"lastyear":  PeriodLastYear,
	"pastyear":  PeriodLastYear,
}

// NormalizePeriod maps labels such as "this week", "this_week" or
// "thisWeek" to their canonical tag. Anything unrecognized is custom.
func NormalizePeriod(label string) Period {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(label)))

	if p, ok := periodAliases[key]; ok {
		return p
	}
	return PeriodCustom
}

// Bounds returns the start and end of p relative to now in loc. Weeks start
// on Monday. The end is the last nanosecond of the period. ok is false for
// custom periods.
func (p Period) Bounds(now time.Time, loc *time.Location) (start, end time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// Days since Monday
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	firstOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		start, end = today, today.AddDate(0, 0, 1)
	case PeriodYesterday:
		start, end = today.AddDate(0, 0, -1), today
	case PeriodTomorrow:
		start, end = today.AddDate(0, 0, 1), today.AddDate(0, 0, 2)
	case PeriodThisWeek:
		start, end = monday, monday.AddDate(0, 0, 7)
	case PeriodLastWeek:
		start, end = monday.AddDate(0, 0, -7), monday
	case PeriodNextWeek:
		start, end = monday.AddDate(0, 0, 7), monday.AddDate(0, 0, 14)
	case PeriodThisMonth:
		start, end = firstOfMonth, firstOfMonth.AddDate(0, 1, 0)
	case PeriodLastMonth:
		start, end = firstOfMonth.AddDate(0, -1, 0), firstOfMonth
	case PeriodNextMonth:
		start, end = firstOfMonth.AddDate(0, 1, 0), firstOfMonth.AddDate(0, 2, 0)
	case PeriodThisYear:
		start, end = firstOfYear, firstOfYear.AddDate(1, 0, 0)
	case PeriodLastYear:
		start, end = firstOfYear.AddDate(-1, 0, 0), firstOfYear
	default:
		return time.Time{}, time.Time{}, false
	}

	return start, end.Add(-time.Nanosecond), true
}
