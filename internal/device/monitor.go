package device

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"attune/internal/config"
	"attune/internal/logging"
)

// Monitor observes battery level and state and reads the platform version
// once at construction. It feeds the adaptive policy decisions in the
// delivery engine and the background trigger registrar.
type Monitor struct {
	logger       *slog.Logger
	reader       batteryReader
	lowPercent   int
	pollInterval time.Duration

	platform     PlatformInfo
	modernFloor  int
	hasBattery   bool

	mu   sync.Mutex
	snap Snapshot

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	udev    *powerEventMonitor
}

// NewMonitor builds a monitor from configuration. The platform probe runs
// here, once.
func NewMonitor(cfg *config.Config, logger *slog.Logger) *Monitor {
	m := &Monitor{
		logger:       logging.NewComponentLogger(logger, "device-monitor"),
		reader:       sysfsBatteryReader{baseDir: cfg.Device.PowerSupplyDir},
		lowPercent:   cfg.Device.LowBatteryPercent,
		pollInterval: time.Duration(cfg.Device.PollIntervalSeconds) * time.Second,
		platform:     probePlatform(),
		modernFloor:  cfg.Device.ModernChannelsFloor,
		hasBattery:   true,
		snap:         Snapshot{Level: 100, State: BatteryUnknown},
	}
	m.udev = newPowerEventMonitor(m.logger, func(ctx context.Context) { m.Refresh(ctx) })
	return m
}

// Start takes an initial battery reading and begins observing changes: udev
// power_supply events when available, with a polling fallback either way.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("device monitor already running")
	}
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.Refresh(runCtx)
	m.udev.Start(runCtx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.Refresh(runCtx)
			}
		}
	}()

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
		logging.String("platform", m.platform.Version),
		logging.Bool("modern_channels", m.SupportsModernNotificationChannels()),
	)
	return nil
}

// Stop halts observation.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.udev.Stop()
	m.wg.Wait()
}

// Refresh takes a fresh battery reading. Hosts without a battery settle into
// a full, mains-powered snapshot and stop warning.
func (m *Monitor) Refresh(ctx context.Context) {
	snap, err := m.reader.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNoBattery) {
			m.mu.Lock()
			if m.hasBattery {
				m.hasBattery = false
				m.snap = Snapshot{Level: 100, State: BatteryFull, At: time.Now()}
				m.logger.Info("no battery present; treating host as mains powered")
			}
			m.mu.Unlock()
			return
		}
		if ctx.Err() == nil {
			m.logger.Warn("battery read failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "battery_read_failed"),
				logging.String(logging.FieldErrorHint, "check power_supply_dir in config"))
		}
		return
	}

	m.mu.Lock()
	m.hasBattery = true
	m.snap = snap
	m.mu.Unlock()
}

// Battery returns the latest observation.
func (m *Monitor) Battery() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// IsLowBattery reports whether discharging at or below the configured
// threshold. Charging hosts are never low: the degraded path exists to save
// power that is not being replenished.
func (m *Monitor) IsLowBattery() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasBattery {
		return false
	}
	if m.snap.State == BatteryCharging || m.snap.State == BatteryFull {
		return false
	}
	return m.snap.Level <= m.lowPercent
}

// SupportsModernNotificationChannels reports whether the platform is at or
// above the version floor for channel-specific notification features.
func (m *Monitor) SupportsModernNotificationChannels() bool {
	return m.platform.KernelMajor >= m.modernFloor
}

// Platform returns the version information read at construction.
func (m *Monitor) Platform() PlatformInfo {
	return m.platform
}
