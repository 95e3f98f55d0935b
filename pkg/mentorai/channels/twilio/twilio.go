// Package twilio implements the SMS and WhatsApp dispatchers on top of the
// Twilio REST API. WhatsApp reuses the SMS message resource with
// "whatsapp:"-prefixed addresses.
package twilio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/phone"
)

// Config holds Twilio credentials and sender numbers.
type Config struct {
	AccountSID   string
	AuthToken    string
	SMSFrom      string
	WhatsAppFrom string
}

// messageCreator is the slice of the Twilio client the dispatchers use;
// narrowed for tests.
type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// SMS dispatches over Twilio SMS.
type SMS struct {
	api    messageCreator
	from   string
	logger *slog.Logger
}

// NewSMS creates the SMS dispatcher.
func NewSMS(cfg Config, logger *slog.Logger) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMS{
		api:    client.Api,
		from:   cfg.SMSFrom,
		logger: logger.With("component", "twilio", "channel", "sms"),
	}
}

// Name implements channels.Dispatcher.
func (s *SMS) Name() string { return "sms" }

// Send implements channels.Dispatcher.
func (s *SMS) Send(ctx context.Context, to string, msg *channels.OutgoingMessage) error {
	return createMessage(s.api, s.logger, s.from, to, msg.Body)
}

// WhatsApp dispatches over Twilio's WhatsApp transport.
type WhatsApp struct {
	api    messageCreator
	from   string
	logger *slog.Logger
}

// NewWhatsApp creates the WhatsApp dispatcher.
func NewWhatsApp(cfg Config, logger *slog.Logger) *WhatsApp {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &WhatsApp{
		api:    client.Api,
		from:   "whatsapp:" + cfg.WhatsAppFrom,
		logger: logger.With("component", "twilio", "channel", "whatsapp"),
	}
}

// Name implements channels.Dispatcher.
func (w *WhatsApp) Name() string { return "whatsapp" }

// Send implements channels.Dispatcher. to may arrive with or without the
// transport prefix; it is normalized to the prefixed form.
func (w *WhatsApp) Send(ctx context.Context, to string, msg *channels.OutgoingMessage) error {
	if !phone.IsWhatsApp(to) {
		to = "whatsapp:" + to
	}
	return createMessage(w.api, w.logger, w.from, to, msg.Body)
}

func createMessage(creator messageCreator, logger *slog.Logger, from, to, body string) error {
	params := &api.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	out, err := creator.CreateMessage(params)
	if err != nil {
		logger.Error("message create failed", "to", to, "error", err)
		return fmt.Errorf("twilio create message: %w", err)
	}
	sid := ""
	if out != nil && out.Sid != nil {
		sid = *out.Sid
	}
	logger.Debug("message sent", "to", to, "sid", sid)
	return nil
}
