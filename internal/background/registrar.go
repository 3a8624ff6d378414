package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"attune/internal/config"
	"attune/internal/device"
	"attune/internal/engine"
	"attune/internal/logging"
	"attune/internal/nudge"
)

// Task names registered with the registrar.
const (
	TaskDeviceUnlockCheck     = "deviceUnlockCheck"
	TaskTimeWindowScheduling  = "timeWindowScheduling"
	TaskDeliveryRecordCleanup = "deliveryRecordCleanup"
)

// Constraints gate a task execution on device conditions.
type Constraints struct {
	// RequiresCharging skips the run while discharging.
	RequiresCharging bool
	// StretchOnLowBattery doubles the interval while battery is low.
	StretchOnLowBattery bool
}

// Task is a periodic unit of background work. Run receives a fresh engine
// for each execution.
type Task struct {
	Name        string
	Interval    time.Duration
	Constraints Constraints
	Run         func(ctx context.Context, eng *engine.Engine) error
}

// EngineFactory builds an engine for one task execution and returns it with
// a release func. Handing each run its own engine keeps background work
// decoupled from the foreground engine's lifetime.
type EngineFactory func(ctx context.Context) (*engine.Engine, func(), error)

// Registrar owns the periodic background tasks: the device-unlock delivery
// check, daily time-window scheduling, and delivery record cleanup.
type Registrar struct {
	cfg     *config.Config
	logger  *slog.Logger
	factory EngineFactory
	monitor *device.Monitor

	mu      sync.Mutex
	tasks   []Task
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRegistrar builds a registrar. The monitor may be nil; constraints then
// never block a run.
func NewRegistrar(cfg *config.Config, logger *slog.Logger, factory EngineFactory, monitor *device.Monitor) *Registrar {
	return &Registrar{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "background"),
		factory: factory,
		monitor: monitor,
	}
}

// RegisterDeviceUnlockTrigger registers the periodic unlock delivery check.
// Registration is idempotent by task name.
func (r *Registrar) RegisterDeviceUnlockTrigger() {
	r.add(Task{
		Name:        TaskDeviceUnlockCheck,
		Interval:    time.Duration(r.cfg.Background.UnlockCheckIntervalMinutes) * time.Minute,
		Constraints: Constraints{StretchOnLowBattery: true},
		Run: func(ctx context.Context, eng *engine.Engine) error {
			_, err := eng.ShowDeviceUnlockNudge(ctx)
			return err
		},
	})
}

// RegisterTimeWindowScheduling registers the daily pass that books a
// notification for each active window, plus the delivery record cleanup.
func (r *Registrar) RegisterTimeWindowScheduling() {
	interval := time.Duration(r.cfg.Background.CleanupIntervalHours) * time.Hour

	r.add(Task{
		Name:     TaskTimeWindowScheduling,
		Interval: interval,
		Run: func(ctx context.Context, eng *engine.Engine) error {
			var errs []error
			for _, window := range nudge.AllWindows() {
				if _, err := eng.ScheduleNudgeForTimeWindow(ctx, window); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	})
	r.add(Task{
		Name:        TaskDeliveryRecordCleanup,
		Interval:    interval,
		Constraints: Constraints{RequiresCharging: true},
		Run: func(ctx context.Context, eng *engine.Engine) error {
			_, err := eng.CleanupDeliveryRecords(ctx)
			return err
		},
	})
}

func (r *Registrar) add(task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.Name == task.Name {
			return
		}
	}
	r.tasks = append(r.tasks, task)
}

// Tasks returns the registered task names in registration order.
func (r *Registrar) Tasks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for _, task := range r.tasks {
		names = append(names, task.Name)
	}
	return names
}

// Start launches one loop per registered task. Each task runs once shortly
// after start, then on its interval.
func (r *Registrar) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("background registrar already running")
	}
	r.running = true
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	tasks := append([]Task(nil), r.tasks...)
	r.mu.Unlock()

	for _, task := range tasks {
		r.wg.Add(1)
		go r.loop(runCtx, task)
	}

	r.logger.Info("background tasks started",
		logging.String(logging.FieldEventType, "background_started"),
		logging.Int("tasks", len(tasks)),
	)
	return nil
}

// Stop halts all task loops and waits for in-flight runs to finish.
func (r *Registrar) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *Registrar) loop(ctx context.Context, task Task) {
	defer r.wg.Done()

	timer := time.NewTimer(r.effectiveInterval(task))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		r.execute(ctx, task)
		timer.Reset(r.effectiveInterval(task))
	}
}

// effectiveInterval applies the low-battery stretch.
func (r *Registrar) effectiveInterval(task Task) time.Duration {
	interval := task.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	if task.Constraints.StretchOnLowBattery && r.monitor != nil && r.monitor.IsLowBattery() {
		interval *= 2
	}
	return interval
}

func (r *Registrar) execute(ctx context.Context, task Task) {
	if task.Constraints.RequiresCharging && r.monitor != nil {
		snap := r.monitor.Battery()
		if snap.State == device.BatteryDischarging {
			r.logger.Debug("deferring task until charging",
				logging.String(logging.FieldTask, task.Name),
			)
			return
		}
	}

	eng, release, err := r.factory(ctx)
	if err != nil {
		r.logger.Warn("background engine unavailable",
			logging.Error(err),
			logging.String(logging.FieldTask, task.Name),
		)
		return
	}
	defer release()

	if err := task.Run(ctx, eng); err != nil && ctx.Err() == nil {
		r.logger.Warn("background task failed",
			logging.Error(err),
			logging.String(logging.FieldTask, task.Name),
			logging.String(logging.FieldEventType, "background_task_failed"),
		)
		return
	}
	r.logger.Debug("background task completed",
		logging.String(logging.FieldTask, task.Name),
	)
}
