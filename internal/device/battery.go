package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BatteryState mirrors the kernel power_supply status values the scheduler
// cares about.
type BatteryState string

const (
	BatteryCharging    BatteryState = "charging"
	BatteryDischarging BatteryState = "discharging"
	BatteryFull        BatteryState = "full"
	BatteryUnknown     BatteryState = "unknown"
)

// Snapshot is one observation of the battery.
type Snapshot struct {
	Level int
	State BatteryState
	At    time.Time
}

// ErrNoBattery is reported on hosts without a battery supply; the monitor
// treats such hosts as permanently on mains power.
var ErrNoBattery = errors.New("no battery power supply found")

type batteryReader interface {
	Read(ctx context.Context) (Snapshot, error)
}

// sysfsBatteryReader reads battery level and state from the kernel's
// power_supply class directory.
type sysfsBatteryReader struct {
	baseDir string
}

func (r sysfsBatteryReader) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	supply, err := r.findBattery()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{State: BatteryUnknown, At: time.Now()}

	capacityRaw, err := os.ReadFile(filepath.Join(supply, "capacity"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read battery capacity: %w", err)
	}
	level, err := strconv.Atoi(strings.TrimSpace(string(capacityRaw)))
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse battery capacity: %w", err)
	}
	snap.Level = level

	statusRaw, err := os.ReadFile(filepath.Join(supply, "status"))
	if err == nil {
		switch strings.ToLower(strings.TrimSpace(string(statusRaw))) {
		case "charging":
			snap.State = BatteryCharging
		case "discharging":
			snap.State = BatteryDischarging
		case "full":
			snap.State = BatteryFull
		}
	}

	return snap, nil
}

func (r sysfsBatteryReader) findBattery() (string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return "", fmt.Errorf("read power supply dir: %w", err)
	}
	for _, entry := range entries {
		dir := filepath.Join(r.baseDir, entry.Name())
		typeRaw, err := os.ReadFile(filepath.Join(dir, "type"))
		if err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(typeRaw)), "Battery") {
			return dir, nil
		}
	}
	return "", ErrNoBattery
}
