package schedule

import (
	"fmt"
	"time"
)

// TimerIn returns the due time d from now, never less than one second out.
func TimerIn(now time.Time, d time.Duration) time.Time {
	return now.Add(max(time.Second, d))
}

// AlarmAt returns the next occurrence of the wall-clock time hhmm ("14:30")
// in loc strictly after now. A time that already passed today rolls to tomorrow.
func AlarmAt(hhmm string, loc *time.Location, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("alarm time %q: want HH:MM", hhmm)
	}
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	if !target.After(local) {
		target = time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour(), t.Minute(), 0, 0, loc)
	}
	return target, nil
}

// ReminderAt parses "YYYY-MM-DD HH:MM" as a wall-clock time in loc.
func ReminderAt(when string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", when, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reminder time %q: want YYYY-MM-DD HH:MM", when)
	}
	return t, nil
}
