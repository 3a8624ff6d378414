package timewindow_test

import (
	"testing"
	"time"

	"attune/internal/config"
	"attune/internal/nudge"
	"attune/internal/timewindow"
)

func newTestSchedule(t *testing.T) *timewindow.Schedule {
	t.Helper()
	cfg := config.Default()
	cfg.Delivery.Timezone = "UTC"
	schedule, err := timewindow.New(&cfg)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	return schedule
}

func TestHoursValid(t *testing.T) {
	tests := []struct {
		name  string
		hours timewindow.Hours
		want  bool
	}{
		{name: "morning", hours: timewindow.Hours{Start: 7, End: 11}, want: true},
		{name: "full day", hours: timewindow.Hours{Start: 0, End: 24}, want: true},
		{name: "empty", hours: timewindow.Hours{Start: 9, End: 9}, want: false},
		{name: "inverted", hours: timewindow.Hours{Start: 11, End: 7}, want: false},
		{name: "negative start", hours: timewindow.Hours{Start: -1, End: 5}, want: false},
		{name: "end past midnight", hours: timewindow.Hours{Start: 20, End: 25}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hours.Valid(); got != tt.want {
				t.Errorf("Hours{%d,%d}.Valid() = %v, want %v", tt.hours.Start, tt.hours.End, got, tt.want)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	schedule := newTestSchedule(t)

	// Morning starts at 07:00 with a 60-minute offset, so delivery lands at
	// 08:00 local.
	tests := []struct {
		name   string
		window nudge.Window
		now    time.Time
		want   time.Time
	}{
		{
			name:   "before start schedules today",
			window: nudge.WindowMorning,
			now:    time.Date(2026, time.May, 4, 6, 0, 0, 0, time.UTC),
			want:   time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "between start and delivery schedules today",
			window: nudge.WindowMorning,
			now:    time.Date(2026, time.May, 4, 7, 30, 0, 0, time.UTC),
			want:   time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "past delivery rolls to tomorrow",
			window: nudge.WindowMorning,
			now:    time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC),
			want:   time.Date(2026, time.May, 5, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "exactly at delivery rolls to tomorrow",
			window: nudge.WindowMorning,
			now:    time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC),
			want:   time.Date(2026, time.May, 5, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "evening window",
			window: nudge.WindowEvening,
			now:    time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schedule.NextOccurrence(tt.window, tt.now)
			if err != nil {
				t.Fatalf("NextOccurrence: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s, %s) = %s, want %s", tt.window, tt.now, got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceAcrossDST(t *testing.T) {
	cfg := config.Default()
	cfg.Delivery.Timezone = "America/New_York"
	schedule, err := timewindow.New(&cfg)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	loc := schedule.Location()

	// 2026-03-08 02:00 local jumps to 03:00; a morning delivery computed the
	// night before must still land at 08:00 local clock time.
	now := time.Date(2026, time.March, 7, 22, 0, 0, 0, loc)
	got, err := schedule.NextOccurrence(nudge.WindowMorning, now)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	local := got.In(loc)
	if local.Hour() != 8 || local.Day() != 8 {
		t.Fatalf("delivery landed at %s, want 08:00 on March 8", local)
	}
}

func TestDueToday(t *testing.T) {
	schedule := newTestSchedule(t)

	now := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)

	// Morning delivery (08:00) has passed; midday (12:00) and evening (18:00)
	// are still ahead.
	due, err := schedule.DueToday(nudge.WindowMorning, now)
	if err != nil {
		t.Fatalf("DueToday morning: %v", err)
	}
	if due {
		t.Error("morning reported due after its delivery time")
	}
	for _, window := range []nudge.Window{nudge.WindowMidday, nudge.WindowEvening} {
		due, err := schedule.DueToday(window, now)
		if err != nil {
			t.Fatalf("DueToday %s: %v", window, err)
		}
		if !due {
			t.Errorf("%s not reported due before its delivery time", window)
		}
	}
}

func TestCurrentWindow(t *testing.T) {
	schedule := newTestSchedule(t)

	tests := []struct {
		hour int
		want nudge.Window
		ok   bool
	}{
		{hour: 6, ok: false},
		{hour: 7, want: nudge.WindowMorning, ok: true},
		{hour: 10, want: nudge.WindowMorning, ok: true},
		{hour: 11, want: nudge.WindowMidday, ok: true},
		{hour: 15, want: nudge.WindowMidday, ok: true},
		{hour: 16, ok: false},
		{hour: 17, want: nudge.WindowEvening, ok: true},
		{hour: 20, want: nudge.WindowEvening, ok: true},
		{hour: 21, ok: false},
		{hour: 23, ok: false},
	}
	for _, tt := range tests {
		now := time.Date(2026, time.May, 4, tt.hour, 30, 0, 0, time.UTC)
		got, ok := schedule.CurrentWindow(now)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CurrentWindow(hour %d) = (%q, %v), want (%q, %v)", tt.hour, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCustomize(t *testing.T) {
	schedule := newTestSchedule(t)

	if err := schedule.Customize(nudge.WindowMorning, timewindow.Hours{Start: 5, End: 9}); err != nil {
		t.Fatalf("customize: %v", err)
	}
	hours, err := schedule.HoursFor(nudge.WindowMorning)
	if err != nil {
		t.Fatalf("hours for: %v", err)
	}
	if hours.Start != 5 || hours.End != 9 {
		t.Fatalf("customized hours = %+v", hours)
	}

	// Delivery moves with the customized start: 05:00 + 60m offset.
	now := time.Date(2026, time.May, 4, 4, 0, 0, 0, time.UTC)
	next, err := schedule.NextOccurrence(nudge.WindowMorning, now)
	if err != nil {
		t.Fatalf("next occurrence: %v", err)
	}
	want := time.Date(2026, time.May, 4, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("customized delivery = %s, want %s", next, want)
	}

	schedule.ClearCustomizations()
	hours, err = schedule.HoursFor(nudge.WindowMorning)
	if err != nil {
		t.Fatalf("hours for after clear: %v", err)
	}
	if hours.Start != 7 || hours.End != 11 {
		t.Fatalf("hours after clear = %+v", hours)
	}
}

func TestCustomizeRejectsInvalid(t *testing.T) {
	schedule := newTestSchedule(t)

	if err := schedule.Customize(nudge.Window("night"), timewindow.Hours{Start: 1, End: 3}); err == nil {
		t.Fatal("unknown window accepted")
	}
	if err := schedule.Customize(nudge.WindowMorning, timewindow.Hours{Start: 9, End: 7}); err == nil {
		t.Fatal("inverted hours accepted")
	}
}
