// Package notify queues and drains outbound notifications through
// pluggable channel adapters.
package notify

import (
	"context"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// Producer enqueues notification events for freshly opened alerts. It is
// invoked inside the evaluator's transaction.
type Producer struct{}

func NewProducer() *Producer {
	return &Producer{}
}

// Eligible applies the suppression rule: WEBHOOK channels receive every
// severity; EMAIL and SMS receive only WARNING and CRITICAL.
func Eligible(channelType model.ChannelType, severity model.Severity) bool {
	return channelType == model.ChannelWebhook || severity != model.SeverityInfo
}

// EnqueueForAlert queues one event per eligible enabled channel of the
// alert's tenant.
func (p *Producer) EnqueueForAlert(ctx context.Context, tx store.Store, event *model.AlertEvent, ruleName, deviceName string) error {
	channels, err := tx.ListEnabledChannels(ctx, event.TenantID)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if !Eligible(ch.Type, event.Severity) {
			continue
		}
		alertID := event.ID
		n := &model.NotificationEvent{
			ID:           model.NewID(),
			TenantID:     event.TenantID,
			ChannelID:    ch.ID,
			AlertEventID: &alertID,
			Status:       model.NotificationQueued,
			Payload: map[string]any{
				"alertEventId": event.ID,
				"deviceId":     event.DeviceID,
				"deviceName":   deviceName,
				"ruleName":     ruleName,
				"severity":     string(event.Severity),
				"openedAt":     event.OpenedAt,
				"details":      map[string]any(event.Details),
			},
		}
		if err := tx.CreateNotificationEvent(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
