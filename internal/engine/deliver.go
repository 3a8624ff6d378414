package engine

import (
	"context"
	"fmt"

	"attune/internal/logging"
	"attune/internal/nudge"
	"attune/internal/store"
)

// ShowDeviceUnlockNudge delivers a nudge immediately in response to a device
// unlock, subject to the daily cap, the unlock cooldown, and the active time
// windows. It reports false without error when delivery was withheld.
//
// The daily counter is read, cap-checked, and advanced under one lock so
// concurrent unlock checks can never both pass a cap with one slot left.
func (e *Engine) ShowDeviceUnlockNudge(ctx context.Context) (bool, error) {
	if !e.Status().CanOperate() {
		return false, nil
	}
	now := e.now()

	settings, err := e.content.UserSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("load user settings: %w", err)
	}
	e.applyCustomizations(settings)

	window, inWindow := e.schedule.CurrentWindow(now)
	if !inWindow {
		e.logger.Debug("unlock outside any delivery window")
		return false, nil
	}
	if !settings.WindowEnabled(window) {
		return false, nil
	}

	dailyMax := settings.DailyMax
	if dailyMax <= 0 {
		dailyMax = e.cfg.Delivery.DailyMax
	}

	last, err := e.store.LastDeliveryAt(ctx)
	if err != nil {
		return false, err
	}
	if !last.IsZero() && now.Sub(last) < e.cfg.UnlockCooldown() {
		e.logger.Debug("unlock delivery within cooldown",
			logging.Time("last_delivery", last),
		)
		return false, nil
	}

	template, ok, err := e.content.RandomForWindow(ctx, window)
	if err != nil {
		return false, fmt.Errorf("pick template: %w", err)
	}
	if !ok {
		return false, nil
	}

	e.stateMu.Lock()
	counter := e.counter.ResetIfNewDay(now, e.location())
	if counter.AtCap(dailyMax) {
		e.counter = counter
		e.stateMu.Unlock()
		e.logger.Debug("daily delivery cap reached",
			logging.Int("delivered", counter.Count),
			logging.Int("cap", dailyMax),
		)
		return false, nil
	}

	id, err := e.allocator.Allocate(ctx)
	if err != nil {
		e.counter = counter
		e.stateMu.Unlock()
		return false, fmt.Errorf("allocate notification id: %w", err)
	}
	payload, err := nudge.EncodePayload(template.ID, nudge.ActionView)
	if err != nil {
		e.counter = counter
		e.stateMu.Unlock()
		return false, err
	}

	notification := e.newNotification(id, template, nudge.TriggerDeviceUnlock, payload)
	if err := e.transport.Show(ctx, notification); err != nil {
		e.counter = counter
		e.stateMu.Unlock()
		return false, fmt.Errorf("show notification: %w", err)
	}

	// The notification is out; everything past this point must not undo
	// the cap consumption.
	e.counter = counter.Increment()
	e.stateMu.Unlock()

	if err := e.persistSnapshot(ctx, true); err != nil {
		e.logger.Warn("persist snapshot after delivery", logging.Error(err))
	}
	if err := e.store.InsertDeliveryRecord(ctx, nudge.DeliveryRecord{
		NotificationID: id,
		TemplateID:     template.ID,
		DeliveredAt:    now,
		Response:       nudge.ActionNone,
	}); err != nil {
		e.logger.Warn("persist delivery record", logging.Error(err))
	}
	if _, err := e.store.IncrementCounter(ctx, store.CounterDelivered); err != nil {
		e.logger.Warn("advance delivered counter", logging.Error(err))
	}

	e.playAudio(ctx, template)

	e.logger.Info("nudge delivered on device unlock",
		logging.String(logging.FieldEventType, "nudge_delivered"),
		logging.Int64(logging.FieldNotificationID, id),
		logging.String(logging.FieldTemplateID, template.ID),
		logging.String(logging.FieldWindow, string(window)),
	)
	e.events.emit(Event{
		Type:           EventDelivered,
		NotificationID: id,
		TemplateID:     template.ID,
		Window:         window,
	})
	return true, nil
}

// playAudio renders the template's companion audio. Low battery takes the
// simplified path; playback failure never fails the delivery that triggered
// it.
func (e *Engine) playAudio(ctx context.Context, template nudge.Template) {
	if template.AudioURL == "" {
		return
	}

	var err error
	if e.monitor != nil && e.monitor.IsLowBattery() {
		err = e.player.PlaySimplified(ctx, template.AudioURL)
	} else {
		err = e.player.Play(ctx, template.AudioURL)
	}
	if err != nil {
		e.logger.Warn("audio playback failed",
			logging.Error(err),
			logging.String(logging.FieldTemplateID, template.ID),
			logging.String(logging.FieldImpact, "nudge delivered without audio"),
		)
	}
}

// DeliveredToday returns the daily counter as of now.
func (e *Engine) DeliveredToday() int {
	now := e.now()
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.counter = e.counter.ResetIfNewDay(now, e.location())
	return e.counter.Count
}
