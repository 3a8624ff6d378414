// Package daemon hosts the long-running attune process: it owns the nudge
// engine and background task registrar, enforces single-instance execution
// with a file lock, and exposes control operations to the IPC layer.
package daemon
