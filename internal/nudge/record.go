package nudge

import "time"

// DeliveryRecord captures one displayed nudge and the user's single response
// to it. Response stays ActionNone until the first response arrives; later
// responses for the same notification id are no-ops.
type DeliveryRecord struct {
	NotificationID int64
	TemplateID     string
	DeliveredAt    time.Time
	Response       Action
	RespondedAt    *time.Time
}

// Responded reports whether the record has consumed its single response.
func (r DeliveryRecord) Responded() bool {
	return r.Response != "" && r.Response != ActionNone
}
