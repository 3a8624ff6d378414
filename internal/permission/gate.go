// Package permission models the OS notification permission surface. The
// delivery engine consults the gate before any scheduling or display
// operation and re-checks it on foreground resume.
package permission

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Status is the notification permission state reported by the platform.
type Status string

const (
	StatusGranted           Status = "granted"
	StatusDenied            Status = "denied"
	StatusPermanentlyDenied Status = "permanently_denied"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusGranted, StatusDenied, StatusPermanentlyDenied:
		return normalized, true
	default:
		return "", false
	}
}

// Gate queries and requests notification permission.
type Gate interface {
	// Status reports the current permission state without prompting.
	Status(ctx context.Context) (Status, error)
	// Request prompts for permission where the platform allows it and
	// returns the resulting state.
	Request(ctx context.Context) (Status, error)
}

// SettingsOpener is implemented by gates that can point the operator at the
// platform's permission settings. Headless gates return guidance text rather
// than launching a UI.
type SettingsOpener interface {
	OpenSettings(ctx context.Context) (string, error)
}

// FileGate reads permission state from an operator-controlled file so a
// headless deployment can flip permission without rebuilding. A missing file
// reads as granted; the file's first line must hold one of the known states.
type FileGate struct {
	path string
}

// NewFileGate builds a gate over the given state file.
func NewFileGate(path string) *FileGate {
	return &FileGate{path: path}
}

// Status implements Gate.
func (g *FileGate) Status(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StatusGranted, nil
		}
		return "", fmt.Errorf("read permission state: %w", err)
	}
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	status, ok := ParseStatus(line)
	if !ok {
		return "", fmt.Errorf("unknown permission state %q in %s", line, g.path)
	}
	return status, nil
}

// Request implements Gate. There is no interactive prompt on a headless
// host, so a request simply re-reads the operator-controlled state.
func (g *FileGate) Request(ctx context.Context) (Status, error) {
	return g.Status(ctx)
}

// OpenSettings implements SettingsOpener. A headless host has no settings UI
// to launch, so the guidance names the state file and the values it accepts.
func (g *FileGate) OpenSettings(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("notification permission is controlled by %s; set its first line to granted, denied, or permanently_denied", g.path), nil
}
