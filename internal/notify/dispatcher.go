package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// drainBatchSize caps how many queued events one drain pass processes.
const drainBatchSize = 100

// Dispatcher drains QUEUED notification events through the adapter for
// each channel type. Delivery is fire-and-forget: a failed send moves the
// row to FAILED and does not retry.
type Dispatcher struct {
	store    store.Store
	adapters map[model.ChannelType]Adapter
	logger   *zap.Logger
}

func NewDispatcher(s store.Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store: s,
		adapters: map[model.ChannelType]Adapter{
			model.ChannelEmail:   &EmailAdapter{Logger: logger},
			model.ChannelSMS:     &SMSAdapter{Logger: logger},
			model.ChannelWebhook: NewWebhookAdapter(),
		},
		logger: logger,
	}
}

// SetAdapter overrides a channel adapter; used by tests and alternative
// deployments.
func (d *Dispatcher) SetAdapter(t model.ChannelType, a Adapter) {
	d.adapters[t] = a
}

// Drain processes one batch of queued events, oldest first.
func (d *Dispatcher) Drain(ctx context.Context) (sent, failed int) {
	events, err := d.store.ListQueuedNotifications(ctx, drainBatchSize)
	if err != nil {
		d.logger.Error("notification drain: listing queued events failed", zap.Error(err))
		return 0, 0
	}

	for i := range events {
		event := &events[i]
		if err := d.deliver(ctx, event); err != nil {
			failed++
			msg := err.Error()
			event.Status = model.NotificationFailed
			event.ErrorMsg = &msg
		} else {
			sent++
			now := time.Now().UTC()
			event.Status = model.NotificationSent
			event.SentAt = &now
		}
		if err := d.store.SaveNotificationEvent(ctx, event); err != nil {
			d.logger.Error("notification drain: status update failed",
				zap.String("eventId", event.ID), zap.Error(err))
		}
	}
	if sent+failed > 0 {
		d.logger.Info("notification drain finished",
			zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent, failed
}

func (d *Dispatcher) deliver(ctx context.Context, event *model.NotificationEvent) error {
	adapter, ok := d.adapters[event.Channel.Type]
	if !ok {
		return fmt.Errorf("no adapter for channel type %q", event.Channel.Type)
	}
	return adapter.Send(ctx, &event.Channel, event.Payload)
}
