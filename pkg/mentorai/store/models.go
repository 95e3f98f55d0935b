// Package store implements the SQLite persistence layer for MentorAI:
// users, profiles, conversations, chat messages, reminders, goals, journals,
// calendar events and life areas.
package store

import "time"

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "USER"
	SenderBot  Sender = "BOT"
)

// User is a registered account. Users are never hard-deleted by the chat or
// reminder paths.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Profile holds the per-user identity used for channel lookup.
type Profile struct {
	UserID      string
	DisplayName string
	Phone       string
	// PhoneCanonical is the digits-only form kept in sync with Phone and
	// used for webhook sender lookup.
	PhoneCanonical string
	Timezone       string
}

// Conversation is the single chat thread of a user across all channels.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

// ChatMessage is an immutable transcript entry. Order is creation order.
type ChatMessage struct {
	ID             string
	ConversationID string
	Sender         Sender
	Message        string
	CreatedAt      time.Time
}

// Reminder transitions unsent→sent exactly once when the poller dispatches
// it; it never reverts.
type Reminder struct {
	ID          string
	UserID      string
	Message     string
	RemindAt    *time.Time
	IsSent      bool
	IsCompleted bool
	CreatedAt   time.Time
}

// Goal is a side-effect record created from interpreted LLM output or via
// the REST API.
type Goal struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     *time.Time
	LifeAreaID  string
	CreatedAt   time.Time
}

// Journal is a free-form diary entry.
type Journal struct {
	ID        string
	UserID    string
	Content   string
	Emoji     string
	Category  string
	CreatedAt time.Time
}

// CalendarEvent is a scheduled block of time.
type CalendarEvent struct {
	ID          string
	UserID      string
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	CreatedAt   time.Time
}

// LifeArea groups goals; unique per (user, name).
type LifeArea struct {
	ID     string
	UserID string
	Name   string
	Color  string
}

// SubGoal is a line item under a life area, linked best-effort to the bot
// message that produced it.
type SubGoal struct {
	ID            string
	LifeAreaID    string
	Name          string
	ChatMessageID string
	CreatedAt     time.Time
}
