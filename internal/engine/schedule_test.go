package engine_test

import (
	"context"
	"testing"
	"time"

	"attune/internal/content"
	"attune/internal/nudge"
	"attune/internal/timewindow"
)

func TestScheduleNudgeForTimeWindow(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowEvening)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !scheduled {
		t.Fatal("nothing scheduled")
	}

	f.transport.mu.Lock()
	calls := append([]scheduledCall(nil), f.transport.scheduled...)
	f.transport.mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(calls))
	}
	call := calls[0]
	// Evening starts at 17:00 with a 60-minute offset.
	want := time.Date(2026, time.September, 1, 18, 0, 0, 0, time.UTC)
	if !call.at.Equal(want) {
		t.Fatalf("scheduled at %s, want %s", call.at, want)
	}
	if call.notification.Title != "Take a breath" || call.notification.Payload != "breath-01:view" {
		t.Fatalf("notification = %+v", call.notification)
	}

	items, err := f.engine.ScheduledNudges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].TemplateID != "breath-01" || items[0].Trigger != string(nudge.WindowEvening) {
		t.Fatalf("persisted = %+v", items)
	}
	if items[0].NotificationID != call.notification.ID {
		t.Fatal("persisted id differs from transport id")
	}

	// The recovery snapshot carries the live identifier.
	state, ok, err := f.store.LoadServiceState(ctx)
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if len(state.ScheduledNudgeIDs) != 1 || state.ScheduledNudgeIDs[0] != call.notification.ID {
		t.Fatalf("snapshot ids = %v", state.ScheduledNudgeIDs)
	}
}

func TestScheduleIsIdempotentPerWindow(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	first, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowEvening)
	if err != nil || !first {
		t.Fatalf("first schedule = (%v, %v)", first, err)
	}

	// Re-running the booking while the entry is still pending books nothing.
	second, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowEvening)
	if err != nil {
		t.Fatalf("second schedule: %v", err)
	}
	if second {
		t.Fatal("window double-booked")
	}

	// A different window is unaffected.
	other, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowMorning)
	if err != nil || !other {
		t.Fatalf("other window = (%v, %v)", other, err)
	}
}

func TestScheduleUnknownWindow(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)

	if _, err := f.engine.ScheduleNudgeForTimeWindow(context.Background(), nudge.Window("night")); err == nil {
		t.Fatal("unknown window accepted")
	}
}

func TestScheduleHonorsDisabledWindow(t *testing.T) {
	f := newFixture(t)
	f.content.settings = content.Settings{
		EnabledWindows: map[nudge.Window]bool{nudge.WindowEvening: false},
	}
	f.mustInitialize(t)

	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(context.Background(), nudge.WindowEvening)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled {
		t.Fatal("disabled window scheduled")
	}
	if f.transport.shownCount() != 0 {
		t.Fatal("transport touched for disabled window")
	}
}

func TestScheduleWithoutEligibleTemplate(t *testing.T) {
	f := newFixture(t)
	f.content.pickOK = false
	f.mustInitialize(t)

	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(context.Background(), nudge.WindowEvening)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled {
		t.Fatal("scheduled without a template")
	}
}

func TestScheduleAppliesWindowCustomizations(t *testing.T) {
	f := newFixture(t)
	f.content.settings = content.Settings{
		Customizations: map[nudge.Window]timewindow.Hours{
			nudge.WindowEvening: {Start: 19, End: 22},
		},
	}
	f.mustInitialize(t)

	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(context.Background(), nudge.WindowEvening)
	if err != nil || !scheduled {
		t.Fatalf("schedule = (%v, %v)", scheduled, err)
	}

	f.transport.mu.Lock()
	at := f.transport.scheduled[0].at
	f.transport.mu.Unlock()
	want := time.Date(2026, time.September, 1, 20, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("customized delivery at %s, want %s", at, want)
	}
}

func TestScheduledIDsSkipReservedRanges(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t)
	ctx := context.Background()

	if err := f.engine.RegisterReservedIDRange(ctx, 1, 99, "calendar"); err != nil {
		t.Fatalf("register range: %v", err)
	}

	scheduled, err := f.engine.ScheduleNudgeForTimeWindow(ctx, nudge.WindowEvening)
	if err != nil || !scheduled {
		t.Fatalf("schedule = (%v, %v)", scheduled, err)
	}

	items, err := f.engine.ScheduledNudges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items[0].NotificationID != 100 {
		t.Fatalf("allocated id = %d, want 100", items[0].NotificationID)
	}
}
