// Package logging builds the daemon's slog loggers and defines the
// standardized structured field names used across components.
package logging
