package nudge

import "strings"

// SchedulerStatus represents the lifecycle of the delivery engine.
type SchedulerStatus string

const (
	StatusUninitialized               SchedulerStatus = "uninitialized"
	StatusInitializing                SchedulerStatus = "initializing"
	StatusReady                       SchedulerStatus = "ready"
	StatusPermissionDenied            SchedulerStatus = "permission_denied"
	StatusPermissionPermanentlyDenied SchedulerStatus = "permission_permanently_denied"
	StatusFailed                      SchedulerStatus = "failed"
)

var allStatuses = []SchedulerStatus{
	StatusUninitialized,
	StatusInitializing,
	StatusReady,
	StatusPermissionDenied,
	StatusPermissionPermanentlyDenied,
	StatusFailed,
}

var statusSet = func() map[SchedulerStatus]struct{} {
	set := make(map[SchedulerStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known scheduler statuses.
func AllStatuses() []SchedulerStatus {
	cp := make([]SchedulerStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseSchedulerStatus converts a string into a known SchedulerStatus.
func ParseSchedulerStatus(value string) (SchedulerStatus, bool) {
	normalized := SchedulerStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanOperate reports whether scheduling and display operations may run.
// Only a ready engine accepts them.
func (s SchedulerStatus) CanOperate() bool {
	return s == StatusReady
}

// IsTerminalForSession reports whether the status cannot change without user
// intervention outside the process.
func (s SchedulerStatus) IsTerminalForSession() bool {
	return s == StatusPermissionPermanentlyDenied || s == StatusFailed
}
