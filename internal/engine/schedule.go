package engine

import (
	"context"
	"fmt"

	"attune/internal/content"
	"attune/internal/logging"
	"attune/internal/notify"
	"attune/internal/nudge"
)

// ScheduleNudgeForTimeWindow books a notification for the window's next
// occurrence. It reports false without error when nothing was scheduled for
// a benign reason: the engine is not ready, the user disabled the window, or
// no eligible template exists.
func (e *Engine) ScheduleNudgeForTimeWindow(ctx context.Context, window nudge.Window) (bool, error) {
	if !e.Status().CanOperate() {
		e.logger.Debug("schedule skipped; engine not ready",
			logging.String(logging.FieldWindow, string(window)),
		)
		return false, nil
	}
	if _, ok := nudge.ParseWindow(string(window)); !ok {
		return false, fmt.Errorf("unknown time window %q", window)
	}

	scheduled, err := e.scheduleWindow(ctx, window)
	if err != nil {
		return false, err
	}
	if scheduled {
		if err := e.persistSnapshot(ctx, true); err != nil {
			return true, err
		}
	}
	return scheduled, nil
}

// scheduleWindow does the work without readiness checks; recovery calls it
// before status flips to ready.
func (e *Engine) scheduleWindow(ctx context.Context, window nudge.Window) (bool, error) {
	pending, err := e.hasPendingForWindow(ctx, window)
	if err != nil {
		return false, err
	}
	if pending {
		e.logger.Debug("window already has a pending notification",
			logging.String(logging.FieldWindow, string(window)),
		)
		return false, nil
	}

	settings, err := e.content.UserSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("load user settings: %w", err)
	}
	if !settings.WindowEnabled(window) {
		e.logger.Debug("window disabled by user settings",
			logging.String(logging.FieldWindow, string(window)),
		)
		return false, nil
	}
	e.applyCustomizations(settings)

	template, ok, err := e.content.RandomForWindow(ctx, window)
	if err != nil {
		return false, fmt.Errorf("pick template: %w", err)
	}
	if !ok {
		e.logger.Debug("no eligible template for window",
			logging.String(logging.FieldWindow, string(window)),
		)
		return false, nil
	}

	at, err := e.schedule.NextOccurrence(window, e.now())
	if err != nil {
		return false, err
	}

	id, err := e.allocator.Allocate(ctx)
	if err != nil {
		return false, fmt.Errorf("allocate notification id: %w", err)
	}
	payload, err := nudge.EncodePayload(template.ID, nudge.ActionView)
	if err != nil {
		return false, err
	}

	notification := e.newNotification(id, template, string(window), payload)
	if err := e.transport.ZonedSchedule(ctx, notification, at); err != nil {
		return false, fmt.Errorf("schedule notification: %w", err)
	}

	if err := e.store.InsertScheduledNudge(ctx, nudge.ScheduledNudge{
		NotificationID: id,
		TemplateID:     template.ID,
		Trigger:        string(window),
		ScheduledAt:    at,
		Payload:        payload,
	}); err != nil {
		return false, err
	}

	e.logger.Info("nudge scheduled",
		logging.String(logging.FieldEventType, "nudge_scheduled"),
		logging.Int64(logging.FieldNotificationID, id),
		logging.String(logging.FieldTemplateID, template.ID),
		logging.String(logging.FieldWindow, string(window)),
		logging.Time("scheduled_at", at),
	)
	e.events.emit(Event{
		Type:           EventScheduled,
		NotificationID: id,
		TemplateID:     template.ID,
		Window:         window,
	})
	return true, nil
}

// hasPendingForWindow reports whether a live scheduled entry already covers
// the window's next delivery, so periodic re-registration stays idempotent.
func (e *Engine) hasPendingForWindow(ctx context.Context, window nudge.Window) (bool, error) {
	items, err := e.store.ScheduledNudges(ctx)
	if err != nil {
		return false, err
	}
	now := e.now()
	for _, item := range items {
		if item.Trigger == string(window) && item.ScheduledAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

// applyCustomizations pushes per-window hour overrides from user settings
// into the schedule. Invalid overrides were filtered at load time.
func (e *Engine) applyCustomizations(settings content.Settings) {
	for window, hours := range settings.Customizations {
		if err := e.schedule.Customize(window, hours); err != nil {
			e.logger.Warn("rejecting window customization",
				logging.Error(err),
				logging.String(logging.FieldWindow, string(window)),
			)
		}
	}
}

func notificationTitle(template nudge.Template) string {
	if template.Title != "" {
		return template.Title
	}
	return "Attune"
}

// newNotification assembles the transport-facing notification. Tags map onto
// channel-specific features, so platforms below the modern-channels floor get
// the plain style without them.
func (e *Engine) newNotification(id int64, template nudge.Template, contextTag, payload string) notify.Notification {
	n := notify.Notification{
		ID:      id,
		Title:   notificationTitle(template),
		Body:    template.Body,
		Payload: payload,
	}
	if e.modernChannels {
		n.Tags = []string{"attune", "nudge", contextTag}
	}
	return n
}
