package derive

import "time"

const secondsPerDay = 24 * 60 * 60

// dayNumber returns the calendar day of t in loc as a day count since the
// Unix epoch. Working on calendar dates keeps DST shifts out of the math.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	secs := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return days
}

// daysUntil returns the number of calendar days from now's date to due's
// date. Both are truncated to midnight, so 23 hours ahead across midnight
// counts as 1 and anything earlier today counts as 0.
func daysUntil(due, now time.Time) int {
	loc := now.Location()
	return int(dayNumber(due, loc) - dayNumber(now, loc))
}

// recent reports whether t lies within recentWindow before now. Up to
// maxFutureSkew ahead of now also counts, to tolerate clock skew.
func recent(t, now time.Time) bool {
	d := now.Sub(t)
	return d >= -maxFutureSkew && d <= recentWindow
}
