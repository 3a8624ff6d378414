package background

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"attune/internal/config"
	"attune/internal/content"
	"attune/internal/engine"
	"attune/internal/notify"
	"attune/internal/permission"
	"attune/internal/testsupport"
)

func newTestEngineFactory(t *testing.T, cfg *config.Config) EngineFactory {
	t.Helper()

	st := testsupport.MustOpenStore(t, cfg)
	eng, err := engine.New(cfg, st,
		permission.NewFileGate(cfg.Permission.StateFile),
		notify.NewTransport(cfg),
		content.NewFileStore(cfg),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(eng.Close)
	if err := eng.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	return func(ctx context.Context) (*engine.Engine, func(), error) {
		return eng, func() {}, nil
	}
}

func TestRegistrationIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registrar := NewRegistrar(cfg, nil, newTestEngineFactory(t, cfg), nil)

	registrar.RegisterDeviceUnlockTrigger()
	registrar.RegisterDeviceUnlockTrigger()
	registrar.RegisterTimeWindowScheduling()
	registrar.RegisterTimeWindowScheduling()

	names := registrar.Tasks()
	want := []string{TaskDeviceUnlockCheck, TaskTimeWindowScheduling, TaskDeliveryRecordCleanup}
	if len(names) != len(want) {
		t.Fatalf("tasks = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tasks = %v, want %v", names, want)
		}
	}
}

func TestEffectiveIntervalDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registrar := NewRegistrar(cfg, nil, newTestEngineFactory(t, cfg), nil)

	if got := registrar.effectiveInterval(Task{Interval: 0}); got != time.Hour {
		t.Fatalf("zero interval = %s, want 1h", got)
	}
	if got := registrar.effectiveInterval(Task{Interval: -time.Minute}); got != time.Hour {
		t.Fatalf("negative interval = %s, want 1h", got)
	}
	// Without a monitor the stretch constraint never applies.
	task := Task{Interval: 10 * time.Minute, Constraints: Constraints{StretchOnLowBattery: true}}
	if got := registrar.effectiveInterval(task); got != 10*time.Minute {
		t.Fatalf("interval = %s, want 10m", got)
	}
}

func TestStartRunsTasksOnInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registrar := NewRegistrar(cfg, nil, newTestEngineFactory(t, cfg), nil)

	var runs atomic.Int64
	registrar.add(Task{
		Name:     "probe",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context, eng *engine.Engine) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := registrar.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(registrar.Stop)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("task ran %d times, want at least 2", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registrar := NewRegistrar(cfg, nil, newTestEngineFactory(t, cfg), nil)
	registrar.RegisterDeviceUnlockTrigger()

	ctx := context.Background()
	if err := registrar.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(registrar.Stop)

	if err := registrar.Start(ctx); err == nil {
		t.Fatal("second start succeeded")
	}

	registrar.Stop()
	// Stop is idempotent.
	registrar.Stop()
}
