package nudge

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Window names a part of the day during which a nudge may be scheduled.
type Window string

const (
	WindowMorning Window = "morning"
	WindowMidday  Window = "midday"
	WindowEvening Window = "evening"
)

// TriggerDeviceUnlock marks deliveries surfaced by the device-unlock check
// rather than a timed window.
const TriggerDeviceUnlock = "deviceUnlock"

var allWindows = []Window{WindowMorning, WindowMidday, WindowEvening}

// AllWindows returns the ordered list of named time windows.
func AllWindows() []Window {
	cp := make([]Window, len(allWindows))
	copy(cp, allWindows)
	return cp
}

// ParseWindow converts a string into a known Window.
func ParseWindow(value string) (Window, bool) {
	normalized := Window(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case WindowMorning, WindowMidday, WindowEvening:
		return normalized, true
	default:
		return "", false
	}
}

// Template is a nudge template supplied by the content collaborator.
// Consumed read-only by the scheduler.
type Template struct {
	ID       string
	Title    string
	Body     string
	Category string
	AudioURL string
	Active   bool
}

// Validate checks the invariants the scheduler relies on. Template IDs travel
// inside the colon-delimited notification payload, so they must not contain
// colons themselves.
func (t Template) Validate() error {
	id := strings.TrimSpace(t.ID)
	if id == "" {
		return errors.New("template id is required")
	}
	if strings.Contains(id, ":") {
		return fmt.Errorf("template id %q must not contain a colon", id)
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("template %s has no body", id)
	}
	return nil
}

// ScheduledNudge is a persisted, not-yet-delivered scheduled notification.
type ScheduledNudge struct {
	NotificationID int64
	TemplateID     string
	Trigger        string
	ScheduledAt    time.Time
	Payload        string
	CreatedAt      time.Time
}

// ReservedRange is an identifier band claimed by another notification
// producer sharing the same identifier space.
type ReservedRange struct {
	Start int64
	End   int64
	Owner string
}

// Validate rejects empty and inverted ranges.
func (r ReservedRange) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("reserved range start %d must not be negative", r.Start)
	}
	if r.End < r.Start {
		return fmt.Errorf("reserved range end %d is before start %d", r.End, r.Start)
	}
	if strings.TrimSpace(r.Owner) == "" {
		return errors.New("reserved range owner is required")
	}
	return nil
}

// Contains reports whether id falls inside the range, bounds inclusive.
func (r ReservedRange) Contains(id int64) bool {
	return id >= r.Start && id <= r.End
}
