package engine

import (
	"log/slog"
	"sync"
	"time"

	"attune/internal/audio"
	"attune/internal/config"
	"attune/internal/content"
	"attune/internal/device"
	"attune/internal/ident"
	"attune/internal/logging"
	"attune/internal/notify"
	"attune/internal/nudge"
	"attune/internal/permission"
	"attune/internal/store"
	"attune/internal/timewindow"
)

// Engine is the nudge delivery core: it owns scheduler status, the daily
// delivery counter, the persisted recovery snapshot, and the single-response
// contract for delivered nudges. All public methods are safe for concurrent
// use.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	gate      permission.Gate
	transport notify.Transport
	content   content.Store
	schedule  *timewindow.Schedule
	allocator *ident.Allocator
	monitor   *device.Monitor
	player    audio.Player
	clock     func() time.Time

	// modernChannels is fixed during initialization, before the engine can
	// deliver. Platforms below the channel floor get the plain notification
	// style.
	modernChannels bool

	// initMu serializes initialization; concurrent Initialize calls share
	// one in-flight run.
	initMu       sync.Mutex
	initDone     bool
	initErr      error
	initInflight chan struct{}

	// stateMu guards status and the daily counter. Held across the whole
	// cap-check-then-deliver sequence so two unlock deliveries cannot both
	// pass the cap.
	stateMu sync.Mutex
	status  nudge.SchedulerStatus
	counter nudge.DailyCounter

	events *eventHub
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger attaches a logger; without it the engine is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source. Tests pin deterministic instants.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithMonitor attaches a device monitor for battery-adaptive delivery.
func WithMonitor(monitor *device.Monitor) Option {
	return func(e *Engine) { e.monitor = monitor }
}

// WithAudioPlayer overrides the audio player.
func WithAudioPlayer(player audio.Player) Option {
	return func(e *Engine) {
		if player != nil {
			e.player = player
		}
	}
}

// WithSchedule overrides the time window schedule.
func WithSchedule(schedule *timewindow.Schedule) Option {
	return func(e *Engine) {
		if schedule != nil {
			e.schedule = schedule
		}
	}
}

// New wires an engine over its collaborators. The engine starts
// uninitialized; call Initialize before scheduling or display operations.
func New(
	cfg *config.Config,
	st *store.Store,
	gate permission.Gate,
	transport notify.Transport,
	contentStore content.Store,
	opts ...Option,
) (*Engine, error) {
	schedule, err := timewindow.New(cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logging.NewNop(),
		store:     st,
		gate:      gate,
		transport: transport,
		content:   contentStore,
		schedule:  schedule,
		allocator: ident.NewAllocator(st),
		clock:     time.Now,
		status:    nudge.StatusUninitialized,
		events:    newEventHub(),

		modernChannels: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "nudge-engine")
	if e.player == nil {
		e.player = audio.NewPlayer(cfg, e.logger)
	}
	return e, nil
}

// Status returns the current scheduler status.
func (e *Engine) Status() nudge.SchedulerStatus {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.status
}

// IsInitialized reports whether initialization completed and left the engine
// ready. A permission-denied engine does not count as initialized even though
// its Initialize call returned nil; it becomes initialized when a later
// resume observes the permission restored.
func (e *Engine) IsInitialized() bool {
	e.initMu.Lock()
	done := e.initDone && e.initErr == nil
	e.initMu.Unlock()
	return done && e.Status() == nudge.StatusReady
}

// Close releases engine resources. The store is owned by the caller.
func (e *Engine) Close() {
	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.events.close()
}

func (e *Engine) setStatus(status nudge.SchedulerStatus) {
	e.stateMu.Lock()
	e.status = status
	e.stateMu.Unlock()
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) location() *time.Location {
	return e.schedule.Location()
}
