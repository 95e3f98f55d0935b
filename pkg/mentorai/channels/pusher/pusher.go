// Package pusher implements the in-app dispatcher on Pusher Channels. Each
// user listens on their private channel "user-{id}" for "notification"
// events.
package pusher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pusherlib "github.com/pusher/pusher-http-go/v5"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
)

// Config holds Pusher Channels credentials.
type Config struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
}

// trigger is the slice of the Pusher client the dispatcher uses; narrowed
// for tests.
type trigger interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// InApp dispatches bot messages as Pusher events.
type InApp struct {
	client trigger
	logger *slog.Logger
}

// New creates the in-app dispatcher.
func New(cfg Config, logger *slog.Logger) *InApp {
	return &InApp{
		client: &pusherlib.Client{
			AppID:   cfg.AppID,
			Key:     cfg.Key,
			Secret:  cfg.Secret,
			Cluster: cfg.Cluster,
		},
		logger: logger.With("component", "pusher"),
	}
}

// Name implements channels.Dispatcher.
func (p *InApp) Name() string { return "inapp" }

// Send implements channels.Dispatcher. to is the user ID.
func (p *InApp) Send(ctx context.Context, to string, msg *channels.OutgoingMessage) error {
	payload := map[string]any{
		"id":        msg.ID,
		"sender":    msg.Sender,
		"message":   msg.Body,
		"timestamp": msg.Timestamp.Format(time.RFC3339),
	}
	if err := p.client.Trigger("user-"+to, "notification", payload); err != nil {
		p.logger.Error("trigger failed", "user_id", to, "error", err)
		return fmt.Errorf("pusher trigger: %w", err)
	}
	return nil
}
