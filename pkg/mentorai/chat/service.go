// Package chat wires the inbound message pipeline: sender resolution,
// find-or-create conversation, the LLM call, response interpretation and
// persistence. Webhook handlers and the poller both funnel through here.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/interpret"
	"github.com/mentorlabs/mentorai/pkg/mentorai/llm"
	"github.com/mentorlabs/mentorai/pkg/mentorai/phone"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

// ErrNoProfile is returned when an inbound sender matches no stored profile.
// Webhook handlers acknowledge silently in that case — no user or
// conversation is created for unknown numbers.
var ErrNoProfile = errors.New("chat: no profile matches sender")

// ErrLLM marks gateway/model failures so callers can degrade to an apology
// reply instead of a hard error.
var ErrLLM = errors.New("chat: llm failure")

// historyWindow is the rolling context window sent to the model.
const historyWindow = 10

// chatTemperature is the interactive-chat sampling temperature.
const chatTemperature = 0.7

// Config holds chat pipeline settings.
type Config struct {
	// AssistantName is used in the system prompt.
	AssistantName string

	// Model is the interactive-chat model.
	Model string

	// DefaultLocation is used for users whose profile timezone fails to
	// load.
	DefaultLocation *time.Location
}

// Service runs the chat pipeline.
type Service struct {
	store  *store.Store
	llm    *llm.Client
	cfg    Config
	logger *slog.Logger
}

// NewService creates the chat service.
func NewService(st *store.Store, client *llm.Client, cfg Config, logger *slog.Logger) *Service {
	if cfg.AssistantName == "" {
		cfg.AssistantName = "MentorAI"
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	return &Service{
		store:  st,
		llm:    client,
		cfg:    cfg,
		logger: logger.With("component", "chat"),
	}
}

// Turn is the result of one processed inbound message.
type Turn struct {
	UserID     string
	Reply      string
	BotMessage *store.ChatMessage
}

// ResolveSender maps a webhook From value to a registered user by probing
// the candidate phone forms. Returns ErrNoProfile when nothing matches.
func (s *Service) ResolveSender(ctx context.Context, from string) (*store.User, error) {
	candidates := phone.LookupCandidates(from)
	user, err := s.store.FindUserByPhone(ctx, candidates)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	return user, nil
}

// HandleMessage runs the full pipeline for one inbound user message:
// find-or-create the conversation, persist the user turn, call the model
// with the rolling window, interpret the output and persist the bot turn
// with its side effects. The conversation title is only used on first
// contact.
func (s *Service) HandleMessage(ctx context.Context, userID, body, conversationTitle string) (*Turn, error) {
	conv, err := s.store.FindOrCreateConversation(ctx, userID, conversationTitle)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	history, err := s.store.RecentMessages(ctx, conv.ID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, store.SenderUser, body); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	loc := s.userLocation(ctx, userID)
	now := time.Now().In(loc)

	raw, err := s.llm.Complete(ctx, llm.Request{
		Model:       s.cfg.Model,
		Messages:    llm.ChatMessages(s.cfg.AssistantName, now, toLLMHistory(history), body),
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLM, err)
	}

	outcome := interpret.Interpret(raw, now, loc)

	msg, err := s.store.RecordBotTurn(ctx, botTurn(conv.ID, userID, outcome))
	if err != nil {
		return nil, fmt.Errorf("persist bot turn: %w", err)
	}

	s.logger.Debug("message handled",
		"user_id", userID,
		"structured", outcome.Structured,
		"reply_len", len(outcome.Reply),
	)
	return &Turn{UserID: userID, Reply: outcome.Reply, BotMessage: msg}, nil
}

// Dispatch relays a persisted bot message over the given channel. Errors
// are logged here and returned; webhook callers swallow them into the empty
// acknowledgment.
func (s *Service) Dispatch(ctx context.Context, d channels.Dispatcher, to string, msg *store.ChatMessage) error {
	out := &channels.OutgoingMessage{
		ID:        msg.ID,
		Sender:    string(msg.Sender),
		Body:      msg.Message,
		Timestamp: msg.CreatedAt,
	}
	if err := d.Send(ctx, to, out); err != nil {
		s.logger.Error("outbound dispatch failed", "channel", d.Name(), "to", to, "error", err)
		return err
	}
	return nil
}

// userLocation loads the profile timezone, falling back to the default.
func (s *Service) userLocation(ctx context.Context, userID string) *time.Location {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return s.cfg.DefaultLocation
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return s.cfg.DefaultLocation
	}
	return loc
}

func toLLMHistory(history []store.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Sender == store.SenderBot {
			role = "assistant"
		}
		out = append(out, llm.Message{Role: role, Content: m.Message})
	}
	return out
}

// botTurn maps an interpreted outcome onto the store's transactional write.
func botTurn(conversationID, userID string, out interpret.Outcome) store.BotTurn {
	turn := store.BotTurn{
		ConversationID: conversationID,
		UserID:         userID,
		Reply:          out.Reply,
	}
	if r := out.Reminder; r != nil {
		turn.Reminder = &store.ReminderInput{Message: r.Message, RemindAt: r.RemindAt}
	}
	if g := out.Goal; g != nil {
		turn.Goal = &store.GoalInput{
			Title:       g.Title,
			Description: g.Description,
			DueDate:     g.DueDate,
			AreaName:    g.AreaName,
		}
	}
	for _, la := range out.LifeAreas {
		turn.LifeAreas = append(turn.LifeAreas, store.LifeAreaInput(la))
	}
	if j := out.Journal; j != nil {
		turn.Journal = &store.JournalInput{Content: j.Content, Emoji: j.Emoji, Category: j.Category}
	}
	if e := out.Event; e != nil {
		turn.Event = &store.EventInput{
			Title:       e.Title,
			Description: e.Description,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		}
	}
	return turn
}
