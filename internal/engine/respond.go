package engine

import (
	"context"
	"fmt"

	"attune/internal/content"
	"attune/internal/logging"
	"attune/internal/nudge"
	"attune/internal/store"
)

// HandleNotificationResponse routes a user's response to a delivered
// notification. Each notification accepts exactly one response: the first
// caller wins, later responses for the same identifier are acknowledged and
// dropped. A response arriving for a scheduled notification the platform
// delivered on its own first creates the delivery record, then applies the
// response to it.
func (e *Engine) HandleNotificationResponse(ctx context.Context, notificationID int64, rawPayload string) error {
	payload, err := nudge.DecodePayload(rawPayload)
	if err != nil {
		e.logger.Warn("rejecting response with malformed payload",
			logging.Int64(logging.FieldNotificationID, notificationID),
			logging.Error(err),
		)
		return err
	}
	now := e.now()

	record, err := e.store.DeliveryRecord(ctx, notificationID)
	if err != nil {
		return err
	}
	if record == nil {
		if err := e.adoptScheduledDelivery(ctx, notificationID, payload.TemplateID); err != nil {
			return err
		}
	}

	applied, err := e.store.RecordResponse(ctx, notificationID, payload.Action, now)
	if err != nil {
		return err
	}
	if !applied {
		e.logger.Debug("dropping repeat response",
			logging.Int64(logging.FieldNotificationID, notificationID),
			logging.String("action", string(payload.Action)),
		)
		return nil
	}

	if err := e.applyAction(ctx, payload); err != nil {
		return err
	}

	e.logger.Info("notification response handled",
		logging.String(logging.FieldEventType, "nudge_responded"),
		logging.Int64(logging.FieldNotificationID, notificationID),
		logging.String(logging.FieldTemplateID, payload.TemplateID),
		logging.String("action", string(payload.Action)),
	)
	e.events.emit(Event{
		Type:           EventResponded,
		NotificationID: notificationID,
		TemplateID:     payload.TemplateID,
		Action:         payload.Action,
	})
	return nil
}

// adoptScheduledDelivery converts a scheduled entry the platform already
// surfaced into a delivery record so the response has something to land on.
// The entry's scheduled instant becomes the delivery time; without an entry
// the response's arrival time has to stand in.
func (e *Engine) adoptScheduledDelivery(ctx context.Context, notificationID int64, templateID string) error {
	record := nudge.DeliveryRecord{
		NotificationID: notificationID,
		TemplateID:     templateID,
		DeliveredAt:    e.now(),
		Response:       nudge.ActionNone,
	}

	scheduled, err := e.store.ScheduledNudgeByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if scheduled != nil {
		record.TemplateID = scheduled.TemplateID
		record.DeliveredAt = scheduled.ScheduledAt
		if _, err := e.store.RemoveScheduledNudge(ctx, notificationID); err != nil {
			return err
		}
		if _, err := e.store.IncrementCounter(ctx, store.CounterDelivered); err != nil {
			e.logger.Warn("advance delivered counter", logging.Error(err))
		}
	}

	if err := e.store.InsertDeliveryRecord(ctx, record); err != nil {
		return fmt.Errorf("adopt delivered notification: %w", err)
	}
	return nil
}

func (e *Engine) applyAction(ctx context.Context, payload nudge.Payload) error {
	switch payload.Action {
	case nudge.ActionView:
		_, err := e.store.IncrementCounter(ctx, store.CounterViewed)
		return err
	case nudge.ActionDismiss:
		_, err := e.store.IncrementCounter(ctx, store.CounterDismissed)
		return err
	case nudge.ActionReplay:
		if _, err := e.store.IncrementCounter(ctx, store.CounterReplayed); err != nil {
			return err
		}
		template, ok, err := e.content.TemplateByID(ctx, payload.TemplateID)
		if err != nil {
			return err
		}
		if !ok {
			e.logger.Warn("replay requested for unknown template",
				logging.String(logging.FieldTemplateID, payload.TemplateID),
			)
			return nil
		}
		e.playAudio(ctx, template)
		return nil
	case nudge.ActionSaveMemory:
		if _, err := e.store.IncrementCounter(ctx, store.CounterSaved); err != nil {
			return err
		}
		template, ok, err := e.content.TemplateByID(ctx, payload.TemplateID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("save memory: unknown template %q", payload.TemplateID)
		}
		return e.content.SaveMemory(ctx, content.Memory{
			TemplateID: template.ID,
			Title:      template.Title,
			Body:       template.Body,
			AudioURL:   template.AudioURL,
			SavedAt:    e.now(),
		})
	default:
		return fmt.Errorf("unhandled response action %q", payload.Action)
	}
}
