package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"attune/internal/background"
	"attune/internal/config"
	"attune/internal/engine"
	"attune/internal/logging"
	"attune/internal/notify"
	"attune/internal/nudge"
	"attune/internal/store"
)

// Daemon coordinates the nudge engine and background tasks and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	engine    *engine.Engine
	registrar *background.Registrar
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	SchedulerStatus nudge.SchedulerStatus
	Initialized     bool
	DeliveredToday  int
	ScheduledCount  int
	Tasks           []string
	DBPath          string
	LockFilePath    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, eng *engine.Engine, registrar *background.Registrar) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || eng == nil || registrar == nil {
		return nil, errors.New("daemon requires config, store, logger, engine, and registrar")
	}

	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		engine:    eng,
		registrar: registrar,
		logPath:   filepath.Join(cfg.Paths.LogDir, "attune.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, initializes the engine, and launches the
// background tasks.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another attune daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Initialize(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("initialize engine: %w", err)
	}
	if err := d.registrar.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start background tasks: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("attune daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop persists the engine snapshot, halts background tasks, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if err := d.engine.HandleSuspend(context.Background()); err != nil {
		d.logger.Warn("persist snapshot on stop", logging.Error(err))
	}
	d.registrar.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("attune daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.engine.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:         d.running.Load(),
		SchedulerStatus: d.engine.Status(),
		Initialized:     d.engine.IsInitialized(),
		DeliveredToday:  d.engine.DeliveredToday(),
		Tasks:           d.registrar.Tasks(),
		DBPath:          d.cfg.DatabasePath(),
		LockFilePath:    d.lockPath,
	}
	if items, err := d.engine.ScheduledNudges(ctx); err == nil {
		status.ScheduledCount = len(items)
	}
	return status
}

// ScheduledNudges lists the live scheduled notifications.
func (d *Daemon) ScheduledNudges(ctx context.Context) ([]nudge.ScheduledNudge, error) {
	return d.engine.ScheduledNudges(ctx)
}

// ScheduleWindow books a nudge for the named window's next occurrence.
func (d *Daemon) ScheduleWindow(ctx context.Context, window string) (bool, error) {
	parsed, ok := nudge.ParseWindow(window)
	if !ok {
		return false, fmt.Errorf("unknown time window %q", window)
	}
	return d.engine.ScheduleNudgeForTimeWindow(ctx, parsed)
}

// ShowUnlockNudge runs the device-unlock delivery path immediately.
func (d *Daemon) ShowUnlockNudge(ctx context.Context) (bool, error) {
	return d.engine.ShowDeviceUnlockNudge(ctx)
}

// HandleResponse routes a notification response to the engine.
func (d *Daemon) HandleResponse(ctx context.Context, notificationID int64, payload string) error {
	return d.engine.HandleNotificationResponse(ctx, notificationID, payload)
}

// RegisterReservedRange records an identifier band owned by another
// notification producer.
func (d *Daemon) RegisterReservedRange(ctx context.Context, start, end int64, owner string) error {
	return d.engine.RegisterReservedIDRange(ctx, start, end, owner)
}

// OpenNotificationSettings surfaces guidance for restoring notification
// permission.
func (d *Daemon) OpenNotificationSettings(ctx context.Context) (string, error) {
	return d.engine.OpenNotificationSettings(ctx)
}

// Analytics returns the persisted response counters.
func (d *Daemon) Analytics(ctx context.Context) (map[string]int64, error) {
	return d.engine.Analytics(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	transport := notify.NewTransport(d.cfg)
	if err := transport.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}
