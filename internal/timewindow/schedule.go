package timewindow

import (
	"fmt"
	"sync"
	"time"

	"attune/internal/config"
	"attune/internal/nudge"
)

// Hours is a window's start and end hour on a 24h clock. End is exclusive.
type Hours struct {
	Start int
	End   int
}

// Valid reports whether the hours describe a non-empty same-day interval.
func (h Hours) Valid() bool {
	return h.Start >= 0 && h.Start <= 23 && h.End > h.Start && h.End <= 24
}

// Schedule resolves named time windows into concrete future instants in the
// configured timezone. Per-window customizations override the configured
// hours until cleared.
type Schedule struct {
	location *time.Location
	offset   time.Duration

	mu        sync.RWMutex
	defaults  map[nudge.Window]Hours
	overrides map[nudge.Window]Hours
}

// New builds a schedule from configuration.
func New(cfg *config.Config) (*Schedule, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	defaults := map[nudge.Window]Hours{
		nudge.WindowMorning: {Start: cfg.Windows.MorningStart, End: cfg.Windows.MorningEnd},
		nudge.WindowMidday:  {Start: cfg.Windows.MiddayStart, End: cfg.Windows.MiddayEnd},
		nudge.WindowEvening: {Start: cfg.Windows.EveningStart, End: cfg.Windows.EveningEnd},
	}
	for window, hours := range defaults {
		if !hours.Valid() {
			return nil, fmt.Errorf("window %s hours %d-%d are invalid", window, hours.Start, hours.End)
		}
	}
	return &Schedule{
		location:  loc,
		offset:    time.Duration(cfg.Windows.OffsetMinutes) * time.Minute,
		defaults:  defaults,
		overrides: make(map[nudge.Window]Hours),
	}, nil
}

// Location returns the timezone all window arithmetic runs in.
func (s *Schedule) Location() *time.Location {
	return s.location
}

// HoursFor returns the effective hours for a window, customization included.
func (s *Schedule) HoursFor(window nudge.Window) (Hours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if hours, ok := s.overrides[window]; ok {
		return hours, nil
	}
	hours, ok := s.defaults[window]
	if !ok {
		return Hours{}, fmt.Errorf("unknown time window %q", window)
	}
	return hours, nil
}

// Customize overrides a window's hours for this schedule.
func (s *Schedule) Customize(window nudge.Window, hours Hours) error {
	if _, ok := nudge.ParseWindow(string(window)); !ok {
		return fmt.Errorf("unknown time window %q", window)
	}
	if !hours.Valid() {
		return fmt.Errorf("window %s hours %d-%d are invalid", window, hours.Start, hours.End)
	}
	s.mu.Lock()
	s.overrides[window] = hours
	s.mu.Unlock()
	return nil
}

// ClearCustomizations drops all per-window overrides.
func (s *Schedule) ClearCustomizations() {
	s.mu.Lock()
	s.overrides = make(map[nudge.Window]Hours)
	s.mu.Unlock()
}

// NextOccurrence computes the delivery instant for a window: the window's
// start plus the configured offset, today when that time is still ahead of
// now, otherwise the same local time tomorrow.
func (s *Schedule) NextOccurrence(window nudge.Window, now time.Time) (time.Time, error) {
	hours, err := s.HoursFor(window)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(s.location)
	target := s.at(local, hours.Start)
	if !target.After(local) {
		target = s.at(local.AddDate(0, 0, 1), hours.Start)
	}
	return target, nil
}

// DueToday reports whether the window's delivery instant still lies ahead on
// the current calendar day. Used by recovery reconciliation to decide which
// windows get regenerated schedules.
func (s *Schedule) DueToday(window nudge.Window, now time.Time) (bool, error) {
	hours, err := s.HoursFor(window)
	if err != nil {
		return false, err
	}
	local := now.In(s.location)
	target := s.at(local, hours.Start)
	return target.After(local), nil
}

// CurrentWindow returns the window containing now, if any.
func (s *Schedule) CurrentWindow(now time.Time) (nudge.Window, bool) {
	local := now.In(s.location)
	hour := local.Hour()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, window := range nudge.AllWindows() {
		hours, ok := s.overrides[window]
		if !ok {
			hours = s.defaults[window]
		}
		if hour >= hours.Start && hour < hours.End {
			return window, true
		}
	}
	return "", false
}

// at anchors a window start to a specific day, applying the delivery offset.
// DST shifts resolve through time.Date, keeping the local clock hour stable.
func (s *Schedule) at(day time.Time, startHour int) time.Time {
	base := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, s.location)
	return base.Add(s.offset)
}
