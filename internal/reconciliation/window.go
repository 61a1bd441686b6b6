package reconciliation

import "time"

// Calendar dates are carried as midnight UTC so they compare and serialize
// independently of the operation's time zone. The zone only matters when a
// date is turned into a timestamp window.

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayWindow returns [date 00:00, date+1 00:00) in loc, expressed in UTC.
// AddDate keeps the window correct across DST transitions.
func DayWindow(date time.Time, loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// CivilDate drops the clock and zone of t, keeping its own year, month and day.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
