package availability

import (
	"fmt"
	"time"
)

// Window is the span availability is requested for: from now until the end
// of the current week.
type Window struct {
	Start time.Time
	End   time.Time
}

func WeekWindow(now time.Time) Window {
	return Window{Start: now, End: EndOfWeek(now)}
}

// EndOfWeek returns the last millisecond of the coming Sunday in now's
// location. On a Sunday that is the same day.
func EndOfWeek(now time.Time) time.Time {
	days := 0
	if wd := now.Weekday(); wd != time.Sunday {
		days = 7 - int(wd)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 23, 59, 59, int(999*time.Millisecond), now.Location())
}

// shortDate formats t as M/D/YYYY, the form the agent prompt uses.
func shortDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%d/%d/%d", int(m), d, y)
}

// isoMillis matches the UTC millisecond timestamps the webhook expects.
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
