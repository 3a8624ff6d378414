package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/engine status information.
type StatusResponse struct {
	Running         bool     `json:"running"`
	SchedulerStatus string   `json:"scheduler_status"`
	Initialized     bool     `json:"initialized"`
	DeliveredToday  int      `json:"delivered_today"`
	ScheduledCount  int      `json:"scheduled_count"`
	Tasks           []string `json:"tasks"`
	DBPath          string   `json:"db_path"`
	LockPath        string   `json:"lock_path"`
	PID             int      `json:"pid"`
}

// ScheduledNudge mirrors the persisted scheduled notification for IPC
// callers.
type ScheduledNudge struct {
	NotificationID int64     `json:"notification_id"`
	TemplateID     string    `json:"template_id"`
	Trigger        string    `json:"trigger"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScheduledListRequest lists pending scheduled notifications.
type ScheduledListRequest struct{}

// ScheduledListResponse contains pending scheduled notifications.
type ScheduledListResponse struct {
	Items []ScheduledNudge `json:"items"`
}

// ScheduleWindowRequest books a nudge for a named time window.
type ScheduleWindowRequest struct {
	Window string `json:"window"`
}

// ScheduleWindowResponse reports whether a nudge was scheduled.
type ScheduleWindowResponse struct {
	Scheduled bool   `json:"scheduled"`
	Message   string `json:"message"`
}

// ShowNudgeRequest runs the device-unlock delivery path immediately.
type ShowNudgeRequest struct{}

// ShowNudgeResponse reports whether a nudge was delivered.
type ShowNudgeResponse struct {
	Delivered bool   `json:"delivered"`
	Message   string `json:"message"`
}

// RespondRequest routes a notification response.
type RespondRequest struct {
	NotificationID int64  `json:"notification_id"`
	Payload        string `json:"payload"`
}

// RespondResponse acknowledges a routed response.
type RespondResponse struct {
	Handled bool `json:"handled"`
}

// ReserveRangeRequest registers an identifier band for another producer.
type ReserveRangeRequest struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Owner string `json:"owner"`
}

// ReserveRangeResponse acknowledges a registered range.
type ReserveRangeResponse struct {
	Registered bool `json:"registered"`
}

// AnalyticsRequest fetches response analytics counters.
type AnalyticsRequest struct{}

// AnalyticsResponse contains the persisted analytics counters.
type AnalyticsResponse struct {
	Counters map[string]int64 `json:"counters"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TablesPresent    []string `json:"tables_present"`
	MissingTables    []string `json:"missing_tables"`
	IntegrityCheck   bool     `json:"integrity_check"`
	ScheduledCount   int      `json:"scheduled_count"`
	RecordCount      int      `json:"record_count"`
	Error            string   `json:"error"`
}

// OpenSettingsRequest surfaces the platform's notification permission
// settings.
type OpenSettingsRequest struct{}

// OpenSettingsResponse carries guidance for restoring notification
// permission.
type OpenSettingsResponse struct {
	Guidance string `json:"guidance"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest reads daemon log lines. A negative Offset tails the last
// Limit lines; Follow with a positive WaitSeconds blocks for new lines.
type LogTailRequest struct {
	Offset      int64 `json:"offset"`
	Limit       int   `json:"limit"`
	Follow      bool  `json:"follow"`
	WaitSeconds int   `json:"wait_seconds"`
}

// LogTailResponse carries log lines plus the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
