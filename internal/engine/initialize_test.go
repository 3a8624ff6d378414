package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attune/internal/nudge"
	"attune/internal/permission"
)

func TestInitializeGranted(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)

	if got := f.engine.Status(); got != nudge.StatusReady {
		t.Fatalf("status = %q, want ready", got)
	}
	if !f.engine.IsInitialized() {
		t.Fatal("engine not initialized")
	}

	ctx := context.Background()
	explain, err := f.engine.NeedsPermissionExplanation(ctx)
	if err != nil {
		t.Fatalf("explanation flag: %v", err)
	}
	settings, err := f.engine.NeedsPermissionSettingsGuidance(ctx)
	if err != nil {
		t.Fatalf("settings flag: %v", err)
	}
	if explain || settings {
		t.Fatalf("flags = explain %v settings %v, want both false", explain, settings)
	}

	// Ready state is persisted for the next start.
	state, ok, err := f.store.LoadServiceState(ctx)
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if !state.IsInitialized || state.Status != nudge.StatusReady {
		t.Fatalf("persisted state = %+v", state)
	}
}

func TestInitializeDenied(t *testing.T) {
	f := newFixture(t)
	f.gate.set(permission.StatusDenied, nil)

	f.mustInitialize(t)

	if got := f.engine.Status(); got != nudge.StatusPermissionDenied {
		t.Fatalf("status = %q, want permission_denied", got)
	}
	if f.engine.IsInitialized() {
		t.Fatal("denied engine reports initialized")
	}
	// Denial prompts exactly once.
	_, requests := f.gate.calls()
	if requests != 1 {
		t.Fatalf("request calls = %d, want 1", requests)
	}

	ctx := context.Background()
	explain, err := f.engine.NeedsPermissionExplanation(ctx)
	if err != nil {
		t.Fatalf("explanation flag: %v", err)
	}
	if !explain {
		t.Fatal("explanation flag not set after denial")
	}

	// A denied engine refuses operations without erroring.
	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowMorning)
	if err != nil || scheduled {
		t.Fatalf("schedule while denied = (%v, %v)", scheduled, err)
	}
	delivered, err := f.engine.ShowDeviceUnlockNudge(ctx)
	if err != nil || delivered {
		t.Fatalf("deliver while denied = (%v, %v)", delivered, err)
	}
}

func TestInitializePermanentlyDenied(t *testing.T) {
	f := newFixture(t)
	f.gate.set(permission.StatusPermanentlyDenied, nil)

	f.mustInitialize(t)

	if got := f.engine.Status(); got != nudge.StatusPermissionPermanentlyDenied {
		t.Fatalf("status = %q", got)
	}
	if !flagSet(t, f.engine.NeedsPermissionSettingsGuidance) {
		t.Fatal("settings guidance flag not set")
	}
	// Permanent denial never prompts.
	_, requests := f.gate.calls()
	if requests != 0 {
		t.Fatalf("request calls = %d, want 0", requests)
	}
}

func flagSet(t *testing.T, flag func(context.Context) (bool, error)) bool {
	t.Helper()
	value, err := flag(context.Background())
	if err != nil {
		t.Fatalf("read flag: %v", err)
	}
	return value
}

func TestInitializeSingleFlight(t *testing.T) {
	f := newFixture(t)
	f.gate.mu.Lock()
	f.gate.statusDelay = 50 * time.Millisecond
	f.gate.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.engine.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("initialize %d: %v", i, err)
		}
	}
	statusCalls, _ := f.gate.calls()
	if statusCalls != 1 {
		t.Fatalf("permission checked %d times, want 1", statusCalls)
	}
	if !f.engine.IsInitialized() {
		t.Fatal("engine not initialized")
	}
}

func TestInitializeFailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.gate.set("", errors.New("permission backend unavailable"))

	err := f.engine.Initialize(context.Background())
	if err == nil {
		t.Fatal("failed initialization returned nil")
	}
	if f.engine.IsInitialized() {
		t.Fatal("failed engine reports initialized")
	}
	if got := f.engine.Status(); got != nudge.StatusFailed {
		t.Fatalf("status = %q, want failed", got)
	}

	f.gate.set(permission.StatusGranted, nil)
	f.mustInitialize(t)
	if got := f.engine.Status(); got != nudge.StatusReady {
		t.Fatalf("status after retry = %q, want ready", got)
	}
}

func TestInitializeIdempotentAfterSuccess(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	f.mustInitialize(t)

	statusCalls, _ := f.gate.calls()
	if statusCalls != 1 {
		t.Fatalf("permission checked %d times, want 1", statusCalls)
	}
}

func TestInitializeRestoresDailyCounter(t *testing.T) {
	f := newFixture(t)

	// A snapshot from earlier the same day carries two deliveries.
	if err := f.store.SaveServiceState(context.Background(), nudge.ServiceState{
		IsInitialized:    true,
		Status:           nudge.StatusReady,
		DeliveredToday:   2,
		LastDeliveryDate: "2026-09-01",
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	f.mustInitialize(t)
	if got := f.engine.DeliveredToday(); got != 2 {
		t.Fatalf("DeliveredToday = %d, want 2", got)
	}
}

func TestInitializeResetsCounterOnNewDay(t *testing.T) {
	f := newFixture(t)

	if err := f.store.SaveServiceState(context.Background(), nudge.ServiceState{
		IsInitialized:    true,
		Status:           nudge.StatusReady,
		DeliveredToday:   3,
		LastDeliveryDate: "2026-08-31",
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	f.mustInitialize(t)
	if got := f.engine.DeliveredToday(); got != 0 {
		t.Fatalf("DeliveredToday = %d, want 0 on a new day", got)
	}
}
