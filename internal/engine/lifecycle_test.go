package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"attune/internal/engine"
	"attune/internal/nudge"
	"attune/internal/permission"
	"attune/internal/testsupport"
)

func TestHandleForegroundResumePermissionLost(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	f.gate.set(permission.StatusDenied, nil)
	if err := f.engine.HandleForegroundResume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if got := f.engine.Status(); got != nudge.StatusPermissionDenied {
		t.Fatalf("status = %q, want permission_denied", got)
	}
	if !flagSet(t, f.engine.NeedsPermissionExplanation) {
		t.Fatal("explanation flag not set")
	}

	delivered, err := f.engine.ShowDeviceUnlockNudge(ctx)
	if err != nil || delivered {
		t.Fatalf("delivery after losing permission = (%v, %v)", delivered, err)
	}
}

func TestHandleForegroundResumePermissionRestored(t *testing.T) {
	f := newFixture(t)
	f.gate.set(permission.StatusDenied, nil)
	f.mustInitialize(t)
	ctx := context.Background()

	if got := f.engine.Status(); got != nudge.StatusPermissionDenied {
		t.Fatalf("status = %q", got)
	}

	f.gate.set(permission.StatusGranted, nil)
	if err := f.engine.HandleForegroundResume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if got := f.engine.Status(); got != nudge.StatusReady {
		t.Fatalf("status = %q, want ready", got)
	}
	if !f.engine.IsInitialized() {
		t.Fatal("restored engine not reported initialized")
	}
	if flagSet(t, f.engine.NeedsPermissionExplanation) {
		t.Fatal("explanation flag still set after restore")
	}

	delivered, err := f.engine.ShowDeviceUnlockNudge(ctx)
	if err != nil || !delivered {
		t.Fatalf("delivery after restore = (%v, %v)", delivered, err)
	}
}

func TestHandleForegroundResumePermanentDenial(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	f.gate.set(permission.StatusPermanentlyDenied, nil)
	if err := f.engine.HandleForegroundResume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := f.engine.Status(); got != nudge.StatusPermissionPermanentlyDenied {
		t.Fatalf("status = %q", got)
	}
	if !flagSet(t, f.engine.NeedsPermissionSettingsGuidance) {
		t.Fatal("settings guidance flag not set")
	}
}

func TestHandleForegroundResumeBeforeInitialize(t *testing.T) {
	f := newFixture(t)

	// An uninitialized engine ignores resume; initialization owns the first
	// permission evaluation.
	if err := f.engine.HandleForegroundResume(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := f.engine.Status(); got != nudge.StatusUninitialized {
		t.Fatalf("status = %q, want uninitialized", got)
	}
	statusCalls, _ := f.gate.calls()
	if statusCalls != 0 {
		t.Fatalf("gate consulted %d times before initialize", statusCalls)
	}
}

func TestOpenNotificationSettingsWithFileGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	eng, err := engine.New(cfg, st,
		permission.NewFileGate(cfg.Permission.StateFile),
		&fakeTransport{},
		&fakeContent{pick: defaultTemplate, pickOK: true},
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(eng.Close)

	guidance, err := eng.OpenNotificationSettings(context.Background())
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	if !strings.Contains(guidance, cfg.Permission.StateFile) {
		t.Fatalf("guidance %q does not name the state file", guidance)
	}
}

func TestOpenNotificationSettingsUnsupportedGate(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)

	if _, err := f.engine.OpenNotificationSettings(context.Background()); err == nil {
		t.Fatal("gate without a settings surface accepted")
	}
}

func TestHandleSuspendPersistsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	if _, err := f.engine.ShowDeviceUnlockNudge(ctx); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := f.engine.HandleSuspend(ctx); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	state, ok, err := f.store.LoadServiceState(ctx)
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if !state.IsInitialized || state.DeliveredToday != 1 {
		t.Fatalf("state = %+v", state)
	}
	if state.LastDeliveryDate != "2026-09-01" {
		t.Fatalf("last delivery date = %q", state.LastDeliveryDate)
	}
}

func TestCleanupDeliveryRecords(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	now := f.clock.Now()
	old := nudge.DeliveryRecord{NotificationID: 900, TemplateID: "breath-01", DeliveredAt: now.Add(-120 * 24 * time.Hour)}
	recent := nudge.DeliveryRecord{NotificationID: 901, TemplateID: "breath-01", DeliveredAt: now.Add(-time.Hour)}
	for _, record := range []nudge.DeliveryRecord{old, recent} {
		if err := f.store.InsertDeliveryRecord(ctx, record); err != nil {
			t.Fatalf("insert record: %v", err)
		}
	}

	pruned, err := f.engine.CleanupDeliveryRecords(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	// The default retention window is 90 days.
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	record, err := f.store.DeliveryRecord(ctx, 901)
	if err != nil || record == nil {
		t.Fatalf("recent record gone: %+v err=%v", record, err)
	}
}
