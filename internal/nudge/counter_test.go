package nudge

import (
	"testing"
	"time"
)

func TestDailyCounterResetIfNewDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 2026-03-10 23:30 in New York is already 2026-03-11 in UTC.
	evening := time.Date(2026, time.March, 11, 3, 30, 0, 0, time.UTC)

	counter := DailyCounter{Date: DayKey(evening, loc), Count: 2}
	if got := counter.ResetIfNewDay(evening, loc); got != counter {
		t.Fatalf("same-day reset changed counter: %+v", got)
	}

	// Half an hour later it is past midnight local time.
	nextDay := evening.Add(time.Hour)
	got := counter.ResetIfNewDay(nextDay, loc)
	if got.Count != 0 {
		t.Fatalf("new-day counter count = %d, want 0", got.Count)
	}
	if got.Date != "2026-03-11" {
		t.Fatalf("new-day counter date = %q, want 2026-03-11", got.Date)
	}
}

func TestDailyCounterUsesLocalCalendarDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	at := time.Date(2026, time.June, 2, 3, 0, 0, 0, time.UTC)
	if got := DayKey(at, loc); got != "2026-06-01" {
		t.Fatalf("DayKey = %q, want 2026-06-01", got)
	}
	if got := DayKey(at, time.UTC); got != "2026-06-02" {
		t.Fatalf("DayKey UTC = %q, want 2026-06-02", got)
	}
}

func TestDailyCounterAtCap(t *testing.T) {
	tests := []struct {
		name  string
		count int
		max   int
		want  bool
	}{
		{name: "under cap", count: 1, max: 3, want: false},
		{name: "at cap", count: 3, max: 3, want: true},
		{name: "over cap", count: 5, max: 3, want: true},
		{name: "zero max disables cap", count: 100, max: 0, want: false},
		{name: "negative max disables cap", count: 100, max: -1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DailyCounter{Count: tt.count}
			if got := c.AtCap(tt.max); got != tt.want {
				t.Errorf("AtCap(%d) with count %d = %v, want %v", tt.max, tt.count, got, tt.want)
			}
		})
	}
}

func TestDailyCounterIncrement(t *testing.T) {
	c := DailyCounter{Date: "2026-01-05", Count: 1}
	next := c.Increment()
	if next.Count != 2 || next.Date != "2026-01-05" {
		t.Fatalf("Increment = %+v", next)
	}
	if c.Count != 1 {
		t.Fatalf("Increment mutated receiver: %+v", c)
	}
}
