// Package store persists scheduler state in SQLite: the service snapshot,
// live scheduled nudges, delivery records, reserved identifier ranges,
// analytics counters, and UI flags. It is shared by the foreground daemon and
// out-of-process background task executions.
package store
