// Package config loads, validates, and normalizes the TOML configuration
// shared by the attuned daemon and the attune CLI.
package config
