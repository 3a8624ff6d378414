// Package logs tails the daemon log file with bounded memory.
//
// A negative offset asks for the last N lines; non-negative offsets resume
// from a prior result so `attune logs --follow` can poll without rereading
// the whole file. Callers supply context deadlines so follow-mode polling
// shuts down cleanly when the CLI exits.
package logs
