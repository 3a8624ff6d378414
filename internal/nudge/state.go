package nudge

import "time"

// ServiceState is the persisted scheduler snapshot, the sole recovery anchor
// consulted at the next initialization.
type ServiceState struct {
	IsInitialized     bool            `json:"isInitialized"`
	Status            SchedulerStatus `json:"status"`
	ScheduledNudgeIDs []int64         `json:"scheduledNudgeIds"`
	DeliveredToday    int             `json:"notificationsDeliveredToday"`
	LastDeliveryDate  string          `json:"lastDeliveryDate"`
	SavedAt           time.Time       `json:"savedTimestamp"`
}

// Stale reports whether the snapshot is too old to trust its scheduled
// delivery times verbatim.
func (s ServiceState) Stale(now time.Time, threshold time.Duration) bool {
	if s.SavedAt.IsZero() {
		return true
	}
	return now.Sub(s.SavedAt) > threshold
}

// Counter extracts the daily delivery counter embedded in the snapshot.
func (s ServiceState) Counter() DailyCounter {
	return DailyCounter{Date: s.LastDeliveryDate, Count: s.DeliveredToday}
}
