// Package channels defines the interface and types for MentorAI outbound
// delivery. Each channel (Twilio SMS, Twilio WhatsApp, in-app push)
// implements the Dispatcher interface to relay bot messages in a unified
// way. Channel choice is determined by which webhook or route triggered the
// flow, not stored per conversation.
package channels

import (
	"context"
	"time"
)

// OutgoingMessage is a bot message handed to a dispatcher after it has been
// persisted to the conversation.
type OutgoingMessage struct {
	// ID is the persisted chat message ID.
	ID string

	// Sender is the transcript sender tag ("BOT").
	Sender string

	// Body is the message text.
	Body string

	// Timestamp is the persisted creation time.
	Timestamp time.Time
}

// Dispatcher relays an outbound message over one channel. Implementations
// do not retry: provider errors are returned to the caller, which decides
// whether to surface or swallow them.
type Dispatcher interface {
	// Name returns the channel identifier (e.g. "sms", "whatsapp", "inapp").
	Name() string

	// Send relays the message to the recipient. The recipient format is
	// channel-specific: an E.164 number for Twilio channels, a user ID for
	// in-app push.
	Send(ctx context.Context, to string, msg *OutgoingMessage) error
}
