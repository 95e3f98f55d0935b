// Package poller implements the background sweeps: due-reminder dispatch
// and inactivity nudges. Uses robfig/cron for interval scheduling, with
// each tick isolated so one failure never kills the scheduler. Single
// replica assumption: running two backend instances would double-send every
// sweep-triggered message.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/llm"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

// Config holds sweep intervals and thresholds.
type Config struct {
	// AssistantName is used in nudge prompts.
	AssistantName string

	// Model is the nudge-generation model.
	Model string

	// ReminderInterval is the time between reminder sweeps.
	ReminderInterval time.Duration

	// InactivityInterval is the time between inactivity sweeps.
	InactivityInterval time.Duration

	// IdleThreshold is how long a user must be silent before a nudge.
	IdleThreshold time.Duration

	// MaxConcurrentNudges bounds the inactivity sweep fan-out.
	MaxConcurrentNudges int
}

// nudgeTemperature is deliberately higher than interactive chat: nudges
// should vary between sweeps.
const nudgeTemperature = 0.9

// Poller owns the two sweep timers.
type Poller struct {
	store    *store.Store
	llm      *llm.Client
	dispatch channels.Dispatcher
	cfg      Config
	cron     *cron.Cron
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a poller. dispatch is the in-app channel — sweep
// notifications go to the user's own conversation feed, never over
// SMS/WhatsApp.
func New(st *store.Store, client *llm.Client, dispatch channels.Dispatcher, cfg Config, logger *slog.Logger) *Poller {
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = 15 * time.Minute
	}
	if cfg.InactivityInterval <= 0 {
		cfg.InactivityInterval = time.Hour
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 24 * time.Hour
	}
	if cfg.MaxConcurrentNudges <= 0 {
		cfg.MaxConcurrentNudges = 4
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = "MentorAI"
	}
	return &Poller{
		store:    st,
		llm:      client,
		dispatch: dispatch,
		cfg:      cfg,
		logger:   logger.With("component", "poller"),
	}
}

// Start registers both sweeps and starts the scheduler.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.cron = cron.New()

	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.cfg.ReminderInterval), p.guard("reminder", p.ReminderSweep)); err != nil {
		return fmt.Errorf("register reminder sweep: %w", err)
	}
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.cfg.InactivityInterval), p.guard("inactivity", p.InactivitySweep)); err != nil {
		return fmt.Errorf("register inactivity sweep: %w", err)
	}

	p.cron.Start()
	p.logger.Info("poller started",
		"reminder_interval", p.cfg.ReminderInterval.String(),
		"inactivity_interval", p.cfg.InactivityInterval.String(),
		"idle_threshold", p.cfg.IdleThreshold.String(),
	)
	return nil
}

// Stop cancels in-flight work and waits for running ticks to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	p.logger.Info("poller stopped")
}

// guard wraps a sweep so a panic or error in one tick is logged and
// contained instead of killing the scheduler.
func (p *Poller) guard(name string, sweep func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("sweep panicked", "sweep", name, "panic", r)
			}
		}()
		if err := sweep(p.ctx); err != nil {
			p.logger.Error("sweep failed", "sweep", name, "error", err)
		}
	}
}

// ReminderSweep claims every due, unsent reminder and dispatches an
// AI-drafted notification for each. Claiming happens before dispatch: a
// crash mid-sweep loses notifications rather than duplicating them on the
// next tick.
func (p *Poller) ReminderSweep(ctx context.Context) error {
	claimed, err := p.store.ClaimDueReminders(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("claim due reminders: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}
	p.logger.Info("reminder sweep", "due", len(claimed))

	for _, r := range claimed {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		urgency := classifyUrgency(r.Message)
		p.logger.Debug("dispatching reminder",
			"reminder_id", r.ID,
			"urgency", urgency.Label,
			"suggested_lead", urgency.Lead.String(),
		)
		if err := p.notifyReminder(ctx, r); err != nil {
			// Per-item isolation: one bad reminder never aborts the rest.
			p.logger.Error("reminder dispatch failed", "reminder_id", r.ID, "error", err)
		}
	}
	return nil
}

func (p *Poller) notifyReminder(ctx context.Context, r store.Reminder) error {
	body, err := p.llm.Complete(ctx, llm.Request{
		Model:       p.cfg.Model,
		Messages:    llm.ReminderNudgeMessages(p.cfg.AssistantName, r.Message, *r.RemindAt),
		Temperature: nudgeTemperature,
	})
	if err != nil {
		// Degrade to a plain notification; the reminder is already claimed
		// and must not be lost to a model outage.
		body = fmt.Sprintf("Reminder: %s", r.Message)
		p.logger.Warn("nudge generation failed, using fallback text", "reminder_id", r.ID, "error", err)
	}
	return p.deliver(ctx, r.UserID, body)
}

// InactivitySweep nudges every user whose last chat message is older than
// the idle threshold. Per-user work runs through a bounded worker group;
// per-item errors are logged and never abort the sweep.
func (p *Poller) InactivitySweep(ctx context.Context) error {
	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrentNudges)
	for _, u := range users {
		u := u
		g.Go(func() error {
			if err := p.nudgeIfIdle(ctx, u); err != nil {
				p.logger.Error("inactivity nudge failed", "user_id", u.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Poller) nudgeIfIdle(ctx context.Context, u store.User) error {
	last, err := p.store.LastMessageAt(ctx, u.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Never chatted: nothing to nudge back into.
		return nil
	}
	if err != nil {
		return err
	}

	idle := time.Since(last)
	if idle < p.cfg.IdleThreshold {
		return nil
	}

	profile, err := p.store.GetProfile(ctx, u.ID)
	displayName := ""
	if err == nil {
		displayName = profile.DisplayName
	}

	body, err := p.llm.Complete(ctx, llm.Request{
		Model:       p.cfg.Model,
		Messages:    llm.InactivityNudgeMessages(p.cfg.AssistantName, displayName, idle),
		Temperature: nudgeTemperature,
	})
	if err != nil {
		return fmt.Errorf("nudge generation: %w", err)
	}

	p.logger.Debug("nudging idle user", "user_id", u.ID, "idle", idle.Round(time.Minute).String())
	return p.deliver(ctx, u.ID, body)
}

// deliver persists the bot message to the user's conversation and relays it
// in-app.
func (p *Poller) deliver(ctx context.Context, userID, body string) error {
	conv, err := p.store.FindOrCreateConversation(ctx, userID, "Chat")
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}
	msg, err := p.store.AppendMessage(ctx, conv.ID, store.SenderBot, body)
	if err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	if p.dispatch == nil {
		// No in-app channel configured; the message still lands in the
		// conversation feed.
		return nil
	}
	return p.dispatch.Send(ctx, userID, &channels.OutgoingMessage{
		ID:        msg.ID,
		Sender:    string(msg.Sender),
		Body:      msg.Message,
		Timestamp: msg.CreatedAt,
	})
}
