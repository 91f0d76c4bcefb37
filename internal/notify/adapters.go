package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"solar-fleet-backend/internal/model"
)

// Adapter delivers one payload through a channel. Implementations must be
// safe for concurrent use.
type Adapter interface {
	Send(ctx context.Context, channel *model.NotificationChannel, payload map[string]any) error
}

// EmailAdapter is a stub that logs the message; real SMTP delivery lives
// outside the core.
type EmailAdapter struct {
	Logger *zap.Logger
}

func (a *EmailAdapter) Send(ctx context.Context, channel *model.NotificationChannel, payload map[string]any) error {
	to, _ := channel.Config["to"].(string)
	if to == "" {
		return errors.New("email channel missing 'to' address")
	}
	a.Logger.Info("email notification",
		zap.String("to", to),
		zap.Any("payload", payload))
	return nil
}

// SMSAdapter is a stub that logs the message.
type SMSAdapter struct {
	Logger *zap.Logger
}

func (a *SMSAdapter) Send(ctx context.Context, channel *model.NotificationChannel, payload map[string]any) error {
	phone, _ := channel.Config["phone"].(string)
	if phone == "" {
		return errors.New("sms channel missing 'phone' number")
	}
	a.Logger.Info("sms notification",
		zap.String("phone", phone),
		zap.Any("payload", payload))
	return nil
}

// WebhookAdapter POSTs the payload as JSON to the channel's configured URL.
type WebhookAdapter struct {
	Client *resty.Client
}

func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{Client: resty.New()}
}

func (a *WebhookAdapter) Send(ctx context.Context, channel *model.NotificationChannel, payload map[string]any) error {
	url, _ := channel.Config["url"].(string)
	if url == "" {
		return errors.New("webhook channel missing 'url'")
	}
	resp, err := a.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
