package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Windows contains the start and end hours for each named time window and the
// delivery offset applied past a window's start.
type Windows struct {
	MorningStart  int `toml:"morning_start"`
	MorningEnd    int `toml:"morning_end"`
	MiddayStart   int `toml:"midday_start"`
	MiddayEnd     int `toml:"midday_end"`
	EveningStart  int `toml:"evening_start"`
	EveningEnd    int `toml:"evening_end"`
	OffsetMinutes int `toml:"offset_minutes"`
}

// Delivery contains the delivery policy: daily cap, staleness and retention
// thresholds, and the timezone used for all day-boundary arithmetic.
type Delivery struct {
	DailyMax              int    `toml:"daily_max"`
	StalenessMinutes      int    `toml:"staleness_minutes"`
	RetentionDays         int    `toml:"retention_days"`
	UnlockCooldownMinutes int    `toml:"unlock_cooldown_minutes"`
	Timezone              string `toml:"timezone"`
}

// Notifications contains configuration for the ntfy notification transport.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Audio contains configuration for the external audio player.
type Audio struct {
	PlayerCommand  string   `toml:"player_command"`
	PlayerArgs     []string `toml:"player_args"`
	SimplifiedArgs []string `toml:"simplified_args"`
	ProbeCommand   string   `toml:"probe_command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Device contains configuration for the battery and platform condition monitor.
type Device struct {
	PowerSupplyDir      string `toml:"power_supply_dir"`
	LowBatteryPercent   int    `toml:"low_battery_percent"`
	ModernChannelsFloor int    `toml:"modern_channels_kernel_floor"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Permission contains configuration for the notification permission gate.
type Permission struct {
	StateFile string `toml:"state_file"`
}

// Background contains intervals for recurring background tasks.
type Background struct {
	UnlockCheckIntervalMinutes int `toml:"unlock_check_interval_minutes"`
	CleanupIntervalHours       int `toml:"cleanup_interval_hours"`
}

// Content contains paths for the file-backed template store.
type Content struct {
	TemplatesPath string `toml:"templates_path"`
	MemoriesPath  string `toml:"memories_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Attune.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and socket locations
//   - Windows: morning/midday/evening hours and delivery offset
//   - Delivery: daily cap, staleness, retention, timezone
//   - Notifications: ntfy transport settings
//   - Audio: external player settings
//   - Device: battery monitor and platform floor
//   - Permission: permission gate state file
//   - Background: recurring task intervals
//   - Content: template store files
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Windows       Windows       `toml:"windows"`
	Delivery      Delivery      `toml:"delivery"`
	Notifications Notifications `toml:"notifications"`
	Audio         Audio         `toml:"audio"`
	Device        Device        `toml:"device"`
	Permission    Permission    `toml:"permission"`
	Background    Background    `toml:"background"`
	Content       Content       `toml:"content"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/attune/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The bool reports whether an
// existing file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the data and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the scheduler state database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "attune.db")
}

// StateLockPath returns the advisory lock file guarding state mutations
// across foreground and background processes.
func (c *Config) StateLockPath() string {
	return filepath.Join(c.Paths.DataDir, "attune.state.lock")
}

// DaemonLockPath returns the single-instance daemon lock file.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "attuned.lock")
}

// Location resolves the configured delivery timezone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Delivery.Timezone
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// StalenessThreshold returns the snapshot age beyond which recovery
// reconciliation runs.
func (c *Config) StalenessThreshold() time.Duration {
	return time.Duration(c.Delivery.StalenessMinutes) * time.Minute
}

// RetentionWindow returns how long delivery records are kept.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.Delivery.RetentionDays) * 24 * time.Hour
}

// UnlockCooldown returns the minimum spacing between device-unlock deliveries.
func (c *Config) UnlockCooldown() time.Duration {
	return time.Duration(c.Delivery.UnlockCooldownMinutes) * time.Minute
}
