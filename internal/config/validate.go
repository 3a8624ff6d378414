package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that cannot be repaired by
// normalization.
func (c *Config) Validate() error {
	var problems []string

	windows := []struct {
		name  string
		start int
		end   int
	}{
		{"morning", c.Windows.MorningStart, c.Windows.MorningEnd},
		{"midday", c.Windows.MiddayStart, c.Windows.MiddayEnd},
		{"evening", c.Windows.EveningStart, c.Windows.EveningEnd},
	}
	for _, w := range windows {
		if w.start < 0 || w.start > 23 {
			problems = append(problems, fmt.Sprintf("%s window start hour %d out of range 0-23", w.name, w.start))
		}
		if w.end < 0 || w.end > 24 {
			problems = append(problems, fmt.Sprintf("%s window end hour %d out of range 0-24", w.name, w.end))
		}
		if w.start >= w.end {
			problems = append(problems, fmt.Sprintf("%s window start hour %d is not before end hour %d", w.name, w.start, w.end))
		}
	}
	if c.Windows.OffsetMinutes < 0 {
		problems = append(problems, "window offset_minutes must not be negative")
	}

	if c.Delivery.DailyMax < 1 {
		problems = append(problems, "delivery daily_max must be at least 1")
	}
	if c.Delivery.StalenessMinutes < 1 {
		problems = append(problems, "delivery staleness_minutes must be at least 1")
	}
	if c.Delivery.RetentionDays < 1 {
		problems = append(problems, "delivery retention_days must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.Device.LowBatteryPercent < 0 || c.Device.LowBatteryPercent > 100 {
		problems = append(problems, fmt.Sprintf("device low_battery_percent %d out of range 0-100", c.Device.LowBatteryPercent))
	}

	if c.Background.UnlockCheckIntervalMinutes < 1 {
		problems = append(problems, "background unlock_check_interval_minutes must be at least 1")
	}
	if c.Background.CleanupIntervalHours < 1 {
		problems = append(problems, "background cleanup_interval_hours must be at least 1")
	}

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths data_dir is required")
	}
	if c.Paths.SocketPath == "" {
		problems = append(problems, "paths socket_path is required")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
