// Package nudge defines the domain types shared across the scheduler:
// templates, time windows, response actions, the notification wire payload,
// delivery records, and the persisted service snapshot.
package nudge
