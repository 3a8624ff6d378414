package nudge

import "time"

// DayKey formats an instant as the calendar-day key used for daily counters.
func DayKey(at time.Time, loc *time.Location) string {
	if loc != nil {
		at = at.In(loc)
	}
	return at.Format("2006-01-02")
}

// DailyCounter tracks deliveries within a single calendar day.
type DailyCounter struct {
	Date  string
	Count int
}

// ResetIfNewDay returns the counter to apply at the given instant: unchanged
// within the same calendar day, zeroed on a new one. Pure so day-boundary
// behavior is testable without timers.
func (c DailyCounter) ResetIfNewDay(now time.Time, loc *time.Location) DailyCounter {
	key := DayKey(now, loc)
	if c.Date == key {
		return c
	}
	return DailyCounter{Date: key}
}

// AtCap reports whether the counter has reached the daily maximum.
func (c DailyCounter) AtCap(max int) bool {
	return max > 0 && c.Count >= max
}

// Increment returns the counter advanced by one delivery.
func (c DailyCounter) Increment() DailyCounter {
	c.Count++
	return c
}
