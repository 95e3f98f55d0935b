package poller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/llm"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentMsg
	err  error
}

type sentMsg struct {
	to   string
	body string
}

func (r *recordingDispatcher) Name() string { return "inapp" }

func (r *recordingDispatcher) Send(_ context.Context, to string, msg *channels.OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMsg{to: to, body: msg.Body})
	return r.err
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newTestPoller(t *testing.T, llmReply string) (*Poller, *store.Store, *recordingDispatcher) {
	t.Helper()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": llmReply}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := llm.New(llm.Config{BaseURL: srv.URL}, logger)
	d := &recordingDispatcher{}
	p := New(st, client, d, Config{Model: "test-model", IdleThreshold: time.Minute}, logger)
	p.ctx = context.Background()
	return p, st, d
}

func addUser(t *testing.T, st *store.Store, phone string) *store.User {
	t.Helper()
	u, err := st.CreateUser(context.Background(), phone+"@example.com", store.Profile{
		DisplayName: "Ana", Phone: "+" + phone, PhoneCanonical: phone, Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestReminderSweepDispatchesOnce(t *testing.T) {
	p, st, d := newTestPoller(t, "Time to call mom — you've got this!")
	ctx := context.Background()
	u := addUser(t, st, "15551234567")

	past := time.Now().UTC().Add(-time.Minute)
	if _, err := st.CreateReminder(ctx, u.ID, "call mom", &past); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	if err := p.ReminderSweep(ctx); err != nil {
		t.Fatalf("ReminderSweep failed: %v", err)
	}
	if d.count() != 1 {
		t.Fatalf("dispatched %d messages, want 1", d.count())
	}
	if d.sent[0].to != u.ID {
		t.Errorf("dispatched to %q, want the user ID", d.sent[0].to)
	}

	// The notification lands in the user's conversation feed.
	conv, _ := st.FindOrCreateConversation(ctx, u.ID, "Chat")
	msgs, _ := st.RecentMessages(ctx, conv.ID, 10)
	if len(msgs) != 1 || msgs[0].Sender != store.SenderBot {
		t.Errorf("transcript = %+v", msgs)
	}

	// A second tick must not re-dispatch the same reminder.
	if err := p.ReminderSweep(ctx); err != nil {
		t.Fatalf("second ReminderSweep failed: %v", err)
	}
	if d.count() != 1 {
		t.Errorf("second sweep re-dispatched: %d sends", d.count())
	}

	r, _ := st.ListReminders(ctx, u.ID)
	if !r[0].IsSent {
		t.Error("reminder not marked sent")
	}
}

func TestReminderSweepFallbackOnLLMFailure(t *testing.T) {
	p, st, d := newTestPoller(t, "unused")
	ctx := context.Background()
	u := addUser(t, st, "15551234567")

	// Point the poller at a dead endpoint.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p.llm = llm.New(llm.Config{BaseURL: "http://127.0.0.1:1", RequestTimeout: 100 * time.Millisecond}, logger)

	past := time.Now().UTC().Add(-time.Minute)
	st.CreateReminder(ctx, u.ID, "water plants", &past)

	if err := p.ReminderSweep(ctx); err != nil {
		t.Fatalf("ReminderSweep failed: %v", err)
	}
	if d.count() != 1 {
		t.Fatalf("dispatched %d, want 1 fallback notification", d.count())
	}
	if d.sent[0].body != "Reminder: water plants" {
		t.Errorf("fallback body = %q", d.sent[0].body)
	}
}

func TestInactivitySweep(t *testing.T) {
	p, st, d := newTestPoller(t, "How are your goals coming along?")
	ctx := context.Background()

	idle := addUser(t, st, "15551111111")
	conv, _ := st.FindOrCreateConversation(ctx, idle.ID, "Chat")
	// Backdate the last message past the threshold.
	old := time.Now().UTC().Add(-2 * time.Hour)
	if _, err := st.DB().Exec(
		`INSERT INTO chat_messages (id, conversation_id, sender, message, created_at) VALUES (?, ?, 'USER', 'hi', ?)`,
		"m-old", conv.ID, old,
	); err != nil {
		t.Fatalf("backdate message: %v", err)
	}

	active := addUser(t, st, "15552222222")
	activeConv, _ := st.FindOrCreateConversation(ctx, active.ID, "Chat")
	st.AppendMessage(ctx, activeConv.ID, store.SenderUser, "just chatted")

	// Registered but never chatted: skipped.
	addUser(t, st, "15553333333")

	if err := p.InactivitySweep(ctx); err != nil {
		t.Fatalf("InactivitySweep failed: %v", err)
	}
	if d.count() != 1 {
		t.Fatalf("dispatched %d nudges, want 1", d.count())
	}
	if d.sent[0].to != idle.ID {
		t.Errorf("nudged %q, want the idle user", d.sent[0].to)
	}
}

func TestGuardContainsPanic(t *testing.T) {
	p, _, _ := newTestPoller(t, "ok")
	ran := false
	fn := p.guard("test", func(context.Context) error {
		ran = true
		panic("boom")
	})
	fn() // must not propagate
	if !ran {
		t.Error("guarded sweep did not run")
	}
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		message string
		label   string
		lead    time.Duration
	}{
		{"catch the flight to Lisbon", "travel", 2 * time.Hour},
		{"morning commute", "commute", time.Hour},
		{"dentist appointment", "medical", 45 * time.Minute},
		{"standup with the team", "meeting", 30 * time.Minute},
		{"gym session", "routine", 20 * time.Minute},
		{"urgent: submit report", "urgent", 10 * time.Minute},
		{"call mom", "call", 15 * time.Minute},
		{"do the laundry", "chore", 5 * time.Minute},
		{"something else entirely", "default", 30 * time.Minute},
	}
	for _, tt := range tests {
		got := classifyUrgency(tt.message)
		if got.Label != tt.label || got.Lead != tt.lead {
			t.Errorf("classifyUrgency(%q) = %+v, want %s/%s", tt.message, got, tt.label, tt.lead)
		}
	}
}
