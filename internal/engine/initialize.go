package engine

import (
	"context"
	"fmt"

	"attune/internal/logging"
	"attune/internal/nudge"
	"attune/internal/permission"
	"attune/internal/store"
)

// Initialize brings the engine to a ready (or inert permission-denied)
// state. Concurrent callers share a single in-flight run and all observe its
// result; once initialization has succeeded, later calls return immediately.
// A failed run may be retried.
//
// The context also bounds the lifetime of the device monitor, so the daemon
// passes its long-lived run context here.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	if e.initDone && e.initErr == nil {
		e.initMu.Unlock()
		return nil
	}
	if e.initInflight != nil {
		inflight := e.initInflight
		e.initMu.Unlock()
		select {
		case <-inflight:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.initMu.Lock()
		defer e.initMu.Unlock()
		return e.initErr
	}
	inflight := make(chan struct{})
	e.initInflight = inflight
	e.initMu.Unlock()

	err := e.runInitialize(ctx)

	e.initMu.Lock()
	e.initErr = err
	e.initDone = err == nil
	e.initInflight = nil
	close(inflight)
	e.initMu.Unlock()
	return err
}

func (e *Engine) runInitialize(ctx context.Context) error {
	e.setStatus(nudge.StatusInitializing)

	status, err := e.gate.Status(ctx)
	if err != nil {
		e.setStatus(nudge.StatusFailed)
		return fmt.Errorf("check notification permission: %w", err)
	}
	if status == permission.StatusDenied {
		// One prompt attempt; the platform may grant on the spot.
		status, err = e.gate.Request(ctx)
		if err != nil {
			e.setStatus(nudge.StatusFailed)
			return fmt.Errorf("request notification permission: %w", err)
		}
	}

	switch status {
	case permission.StatusDenied:
		e.setStatus(nudge.StatusPermissionDenied)
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionExplanation, true); err != nil {
			return err
		}
		e.logger.Warn("notification permission denied; engine is inert until permission changes",
			logging.String(logging.FieldEventType, "permission_denied"),
		)
		return e.persistSnapshot(ctx, false)
	case permission.StatusPermanentlyDenied:
		e.setStatus(nudge.StatusPermissionPermanentlyDenied)
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionSettings, true); err != nil {
			return err
		}
		e.logger.Warn("notification permission permanently denied",
			logging.String(logging.FieldEventType, "permission_permanently_denied"),
			logging.String(logging.FieldErrorHint, "permission must be restored outside the application"),
		)
		return e.persistSnapshot(ctx, false)
	}

	if err := e.store.SetFlag(ctx, store.FlagShowPermissionExplanation, false); err != nil {
		return err
	}
	if err := e.store.SetFlag(ctx, store.FlagShowPermissionSettings, false); err != nil {
		return err
	}

	// Decide the notification style before recovery regenerates schedules.
	e.modernChannels = e.monitor == nil || e.monitor.SupportsModernNotificationChannels()
	if !e.modernChannels {
		e.logger.Info("platform below notification channel floor; using plain notification style",
			logging.String(logging.FieldEventType, "plain_notification_style"),
		)
	}

	if err := e.recoverState(ctx); err != nil {
		e.setStatus(nudge.StatusFailed)
		return err
	}

	if e.monitor != nil {
		if err := e.monitor.Start(ctx); err != nil {
			// Delivery works without battery awareness; it just never
			// takes the degraded path.
			e.logger.Warn("device monitor unavailable",
				logging.Error(err),
				logging.String(logging.FieldEventType, "device_monitor_unavailable"),
			)
		}
	}

	e.setStatus(nudge.StatusReady)
	if err := e.persistSnapshot(ctx, true); err != nil {
		return err
	}

	e.logger.Info("nudge engine ready",
		logging.String(logging.FieldEventType, "engine_ready"),
	)
	return nil
}

// recoverState restores the daily counter from the persisted snapshot and
// reconciles scheduled notifications after a stale shutdown: every persisted
// identifier is cancelled against the transport, then windows still ahead of
// now on the current day get fresh schedules. A fresh snapshot keeps its
// scheduled entries untouched.
func (e *Engine) recoverState(ctx context.Context) error {
	now := e.now()

	state, found, err := e.store.LoadServiceState(ctx)
	if err != nil {
		return err
	}

	e.stateMu.Lock()
	e.counter = state.Counter().ResetIfNewDay(now, e.location())
	e.stateMu.Unlock()

	if !found {
		return nil
	}
	if !state.Stale(now, e.cfg.StalenessThreshold()) {
		return nil
	}

	ids, err := e.store.ScheduledIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		if err := e.transport.Cancel(ctx, id); err != nil {
			e.logger.Warn("cancel stale scheduled notification",
				logging.Error(err),
				logging.Int64(logging.FieldNotificationID, id),
			)
		}
		if _, err := e.store.RemoveScheduledNudge(ctx, id); err != nil {
			return err
		}
	}

	regenerated := 0
	for _, window := range nudge.AllWindows() {
		due, err := e.schedule.DueToday(window, now)
		if err != nil {
			return err
		}
		if !due {
			continue
		}
		scheduled, err := e.scheduleWindow(ctx, window)
		if err != nil {
			e.logger.Warn("regenerate schedule after stale snapshot",
				logging.Error(err),
				logging.String(logging.FieldWindow, string(window)),
			)
			continue
		}
		if scheduled {
			regenerated++
		}
	}

	e.logger.Info("recovered from stale snapshot",
		logging.String(logging.FieldEventType, "state_recovered"),
		logging.Int("cancelled", len(ids)),
		logging.Int("regenerated", regenerated),
	)
	return nil
}

// persistSnapshot writes the recovery snapshot reflecting current in-memory
// state plus the live scheduled identifiers.
func (e *Engine) persistSnapshot(ctx context.Context, initialized bool) error {
	ids, err := e.store.ScheduledIDs(ctx)
	if err != nil {
		return err
	}

	e.stateMu.Lock()
	state := nudge.ServiceState{
		IsInitialized:     initialized,
		Status:            e.status,
		ScheduledNudgeIDs: ids,
		DeliveredToday:    e.counter.Count,
		LastDeliveryDate:  e.counter.Date,
	}
	e.stateMu.Unlock()

	return e.store.SaveServiceState(ctx, state)
}
