package engine

import (
	"context"
	"errors"

	"attune/internal/logging"
	"attune/internal/nudge"
	"attune/internal/permission"
	"attune/internal/store"
)

// HandleForegroundResume re-evaluates permission after the application comes
// back to the foreground. A previously denied engine becomes ready when the
// user granted permission in the meantime; a ready engine that lost
// permission goes inert. The device monitor takes a fresh battery reading.
func (e *Engine) HandleForegroundResume(ctx context.Context) error {
	if e.monitor != nil {
		e.monitor.Refresh(ctx)
	}

	current := e.Status()
	switch current {
	case nudge.StatusReady, nudge.StatusPermissionDenied, nudge.StatusPermissionPermanentlyDenied:
	default:
		return nil
	}

	status, err := e.gate.Status(ctx)
	if err != nil {
		return err
	}

	switch status {
	case permission.StatusGranted:
		if current == nudge.StatusReady {
			return nil
		}
		e.setStatus(nudge.StatusReady)
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionExplanation, false); err != nil {
			return err
		}
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionSettings, false); err != nil {
			return err
		}
		e.logger.Info("permission restored on resume",
			logging.String(logging.FieldEventType, "permission_restored"),
		)
		return e.persistSnapshot(ctx, true)
	case permission.StatusDenied:
		if current == nudge.StatusPermissionDenied {
			return nil
		}
		e.setStatus(nudge.StatusPermissionDenied)
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionExplanation, true); err != nil {
			return err
		}
		return e.persistSnapshot(ctx, e.IsInitialized())
	case permission.StatusPermanentlyDenied:
		if current == nudge.StatusPermissionPermanentlyDenied {
			return nil
		}
		e.setStatus(nudge.StatusPermissionPermanentlyDenied)
		if err := e.store.SetFlag(ctx, store.FlagShowPermissionSettings, true); err != nil {
			return err
		}
		return e.persistSnapshot(ctx, e.IsInitialized())
	}
	return nil
}

// HandleSuspend persists the recovery snapshot before the process loses the
// foreground or shuts down.
func (e *Engine) HandleSuspend(ctx context.Context) error {
	return e.persistSnapshot(ctx, e.IsInitialized())
}

// NeedsPermissionExplanation reports whether the UI should explain why
// notification permission matters.
func (e *Engine) NeedsPermissionExplanation(ctx context.Context) (bool, error) {
	return e.store.Flag(ctx, store.FlagShowPermissionExplanation)
}

// NeedsPermissionSettingsGuidance reports whether the UI should direct the
// user to system settings to restore permission.
func (e *Engine) NeedsPermissionSettingsGuidance(ctx context.Context) (bool, error) {
	return e.store.Flag(ctx, store.FlagShowPermissionSettings)
}

// OpenNotificationSettings surfaces the platform's permission settings. On a
// headless host the gate cannot launch a settings UI, so it returns guidance
// describing where the permission state lives and how to change it.
func (e *Engine) OpenNotificationSettings(ctx context.Context) (string, error) {
	opener, ok := e.gate.(permission.SettingsOpener)
	if !ok {
		return "", errors.New("permission gate exposes no settings surface")
	}
	guidance, err := opener.OpenSettings(ctx)
	if err != nil {
		return "", err
	}
	e.logger.Info("notification settings guidance surfaced",
		logging.String(logging.FieldEventType, "settings_opened"),
	)
	return guidance, nil
}

// RegisterReservedIDRange records an identifier band owned by another
// notification producer; the allocator never hands out identifiers inside
// it. Registration is idempotent.
func (e *Engine) RegisterReservedIDRange(ctx context.Context, start, end int64, owner string) error {
	if err := e.allocator.RegisterReservedRange(ctx, start, end, owner); err != nil {
		return err
	}
	e.logger.Info("reserved identifier range registered",
		logging.String(logging.FieldEventType, "reserved_range_registered"),
		logging.Int64("start", start),
		logging.Int64("end", end),
		logging.String("owner", owner),
	)
	return nil
}

// Analytics returns the persisted response counters.
func (e *Engine) Analytics(ctx context.Context) (map[string]int64, error) {
	return e.store.AnalyticsCounters(ctx)
}

// ScheduledNudges lists the live scheduled notifications.
func (e *Engine) ScheduledNudges(ctx context.Context) ([]nudge.ScheduledNudge, error) {
	return e.store.ScheduledNudges(ctx)
}

// CleanupDeliveryRecords prunes delivery records older than the configured
// retention window and reports how many were removed.
func (e *Engine) CleanupDeliveryRecords(ctx context.Context) (int64, error) {
	cutoff := e.now().Add(-e.cfg.RetentionWindow())
	pruned, err := e.store.PruneDeliveryRecords(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		e.logger.Info("pruned delivery records",
			logging.String(logging.FieldEventType, "records_pruned"),
			logging.Int64("pruned", pruned),
		)
	}
	return pruned, nil
}
