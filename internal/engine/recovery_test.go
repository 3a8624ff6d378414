package engine_test

import (
	"context"
	"testing"
	"time"

	"attune/internal/nudge"
)

func seedScheduled(t *testing.T, f *fixture, id int64, at time.Time) {
	t.Helper()
	if err := f.store.InsertScheduledNudge(context.Background(), nudge.ScheduledNudge{
		NotificationID: id,
		TemplateID:     "breath-01",
		Trigger:        string(nudge.WindowMorning),
		ScheduledAt:    at,
		Payload:        "breath-01:view",
	}); err != nil {
		t.Fatalf("seed scheduled %d: %v", id, err)
	}
}

func TestInitializeRecoversFromStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The previous run booked notifications and then the process sat dead
	// for two hours, past the staleness threshold.
	f.clock.Set(time.Now().UTC().Add(2 * time.Hour))
	seedScheduled(t, f, 500, f.clock.Now().Add(-90*time.Minute))
	seedScheduled(t, f, 501, f.clock.Now().Add(30*time.Minute))
	if err := f.store.SaveServiceState(ctx, nudge.ServiceState{
		IsInitialized:     true,
		Status:            nudge.StatusReady,
		ScheduledNudgeIDs: []int64{500, 501},
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	f.mustInitialize(t)

	// Every persisted identifier was cancelled against the transport, even
	// the one whose delivery still lay ahead: its real delivery state is
	// unknowable after a stale gap.
	f.transport.mu.Lock()
	cancelled := append([]int64(nil), f.transport.cancelled...)
	f.transport.mu.Unlock()
	if len(cancelled) != 2 {
		t.Fatalf("cancelled = %v, want ids 500 and 501", cancelled)
	}

	items, err := f.engine.ScheduledNudges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	now := f.clock.Now()
	for _, item := range items {
		if item.NotificationID == 500 || item.NotificationID == 501 {
			t.Fatalf("stale entry survived recovery: %+v", item)
		}
		if !item.ScheduledAt.After(now) {
			t.Fatalf("regenerated entry not in the future: %+v", item)
		}
	}

	if got := f.engine.Status(); got != nudge.StatusReady {
		t.Fatalf("status = %q, want ready", got)
	}
}

func TestInitializeKeepsFreshSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The process restarts moments after the snapshot was written.
	f.clock.Set(time.Now().UTC().Add(time.Minute))
	seedScheduled(t, f, 600, f.clock.Now().Add(time.Hour))
	if err := f.store.SaveServiceState(ctx, nudge.ServiceState{
		IsInitialized:     true,
		Status:            nudge.StatusReady,
		ScheduledNudgeIDs: []int64{600},
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	f.mustInitialize(t)

	f.transport.mu.Lock()
	cancelled := len(f.transport.cancelled)
	f.transport.mu.Unlock()
	if cancelled != 0 {
		t.Fatalf("fresh snapshot cancelled %d notifications", cancelled)
	}

	items, err := f.engine.ScheduledNudges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].NotificationID != 600 {
		t.Fatalf("scheduled entries = %+v, want only id 600", items)
	}
}

func TestInitializeWithoutSnapshotStartsClean(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)

	if got := f.engine.DeliveredToday(); got != 0 {
		t.Fatalf("DeliveredToday = %d, want 0", got)
	}
	items, err := f.engine.ScheduledNudges(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("scheduled entries = %+v, want none", items)
	}
	f.transport.mu.Lock()
	cancelled := len(f.transport.cancelled)
	f.transport.mu.Unlock()
	if cancelled != 0 {
		t.Fatalf("clean start cancelled %d notifications", cancelled)
	}
}
