// Package content supplies nudge templates and user settings to the
// scheduler and records memories the user chooses to save. The file-backed
// store reads a TOML catalog and appends memories as JSON lines.
package content
