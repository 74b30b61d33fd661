package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/config"
	"github.com/Hamayesh-Negar/Back-end/pkg/queue"
)

// FCMClient delivers push notifications through the Firebase Cloud
// Messaging HTTP endpoint. With no server key configured the client is
// disabled and drops jobs with a warning.
type FCMClient struct {
	http      *resty.Client
	serverKey string
	logger    *zap.Logger
}

// NewFCMClient creates an FCM sender from configuration.
func NewFCMClient(cfg config.FCMConfig, logger *zap.Logger) *FCMClient {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &FCMClient{http: client, serverKey: cfg.ServerKey, logger: logger}
}

// Enabled reports whether a server key is configured.
func (c *FCMClient) Enabled() bool {
	return c.serverKey != ""
}

type fcmMessage struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send pushes one notification payload to all of its device tokens.
func (c *FCMClient) Send(ctx context.Context, payload queue.PushPayload) error {
	if !c.Enabled() {
		c.logger.Warn("fcm disabled, dropping notification",
			zap.String("user_id", payload.UserID.String()))
		return nil
	}
	if len(payload.Tokens) == 0 {
		return nil
	}

	var result fcmResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+c.serverKey).
		SetBody(fcmMessage{
			RegistrationIDs: payload.Tokens,
			Notification:    fcmNotification{Title: payload.Title, Body: payload.Body},
			Data:            payload.Data,
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return fmt.Errorf("fcm request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fcm returned %s", resp.Status())
	}
	if result.Failure > 0 {
		c.logger.Warn("fcm partial delivery",
			zap.String("user_id", payload.UserID.String()),
			zap.Int("success", result.Success),
			zap.Int("failure", result.Failure))
	}
	return nil
}
