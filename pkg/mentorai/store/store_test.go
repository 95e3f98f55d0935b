package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, phone string) *User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), phone+"@example.com", Profile{
		DisplayName:    "Test User",
		Phone:          "+" + phone,
		PhoneCanonical: phone,
		Timezone:       "UTC",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func TestCreateAndFindUserByPhone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")

	found, err := s.FindUserByPhone(ctx, []string{"15551234567"})
	if err != nil {
		t.Fatalf("FindUserByPhone failed: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("found user %s, want %s", found.ID, u.ID)
	}

	// Raw "+"-prefixed form matches the profiles.phone column.
	found, err = s.FindUserByPhone(ctx, []string{"nope", "+15551234567"})
	if err != nil {
		t.Fatalf("FindUserByPhone raw form failed: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("found user %s, want %s", found.ID, u.ID)
	}

	if _, err := s.FindUserByPhone(ctx, []string{"0000000"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindUserByPhone(ctx, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty candidates, got %v", err)
	}
}

func TestFindOrCreateConversationIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")

	first, err := s.FindOrCreateConversation(ctx, u.ID, "WhatsApp chat")
	if err != nil {
		t.Fatalf("FindOrCreateConversation failed: %v", err)
	}
	second, err := s.FindOrCreateConversation(ctx, u.ID, "SMS chat")
	if err != nil {
		t.Fatalf("second FindOrCreateConversation failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one conversation, got %s and %s", first.ID, second.ID)
	}
	if second.Title != "WhatsApp chat" {
		t.Errorf("title rewritten on reuse: %q", second.Title)
	}
}

func TestRecentMessagesWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")
	conv, _ := s.FindOrCreateConversation(ctx, u.ID, "Chat")

	for i := 0; i < 15; i++ {
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderBot
		}
		if _, err := s.AppendMessage(ctx, conv.ID, sender, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.RecentMessages(ctx, conv.ID, 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 10 {
		t.Fatalf("got %d messages, want 10", len(msgs))
	}
	// Ascending order over the latest ten: 5..14.
	if msgs[0].Message != "msg 5" || msgs[9].Message != "msg 14" {
		t.Errorf("window out of order: first=%q last=%q", msgs[0].Message, msgs[9].Message)
	}
}

func TestClaimDueRemindersOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	if _, err := s.CreateReminder(ctx, u.ID, "call mom", &past); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}
	if _, err := s.CreateReminder(ctx, u.ID, "dentist", &future); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}
	// No remind_at: never becomes due.
	if _, err := s.CreateReminder(ctx, u.ID, "someday", nil); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	claimed, err := s.ClaimDueReminders(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ClaimDueReminders failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].Message != "call mom" {
		t.Fatalf("claimed %v, want only the past reminder", claimed)
	}
	if !claimed[0].IsSent {
		t.Error("claimed reminder not marked sent")
	}

	// A second sweep over the same table must claim nothing.
	again, err := s.ClaimDueReminders(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("second ClaimDueReminders failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second sweep re-claimed %d reminders", len(again))
	}
}

func TestRecordBotTurnSideEffects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")
	conv, _ := s.FindOrCreateConversation(ctx, u.ID, "Chat")

	due := time.Now().UTC().Add(24 * time.Hour)
	start := time.Now().UTC().Add(48 * time.Hour)
	end := start.Add(time.Hour)

	msg, err := s.RecordBotTurn(ctx, BotTurn{
		ConversationID: conv.ID,
		UserID:         u.ID,
		Reply:          "Noted!",
		Reminder:       &ReminderInput{Message: "call mom", RemindAt: &due},
		Goal:           &GoalInput{Title: "Run 5k", Description: "weekly", AreaName: "Health", DueDate: &due},
		LifeAreas:      []LifeAreaInput{{Name: "Career", SubArea: "Learn Go", Color: "#112233"}},
		Journal:        &JournalInput{Content: "felt great", Emoji: "😀", Category: "mood"},
		Event:          &EventInput{Title: "standup", StartTime: &start, EndTime: &end},
	})
	if err != nil {
		t.Fatalf("RecordBotTurn failed: %v", err)
	}
	if msg.Sender != SenderBot || msg.Message != "Noted!" {
		t.Errorf("unexpected bot message: %+v", msg)
	}

	reminders, _ := s.ListReminders(ctx, u.ID)
	if len(reminders) != 1 || reminders[0].Message != "call mom" {
		t.Errorf("reminders = %v", reminders)
	}
	goals, _ := s.ListGoals(ctx, u.ID)
	if len(goals) != 1 || goals[0].Title != "Run 5k" {
		t.Errorf("goals = %v", goals)
	}
	journals, _ := s.ListJournals(ctx, u.ID)
	if len(journals) != 1 {
		t.Errorf("journals = %v", journals)
	}
	events, _ := s.ListCalendarEvents(ctx, u.ID)
	if len(events) != 1 || events[0].EndTime == nil || !events[0].EndTime.Equal(end) {
		t.Errorf("events = %v", events)
	}

	areas, _ := s.ListLifeAreas(ctx, u.ID)
	if len(areas) != 2 {
		t.Fatalf("areas = %v, want Health and Career", areas)
	}
	for _, a := range areas {
		subs, _ := s.ListSubGoals(ctx, a.ID)
		if len(subs) != 1 {
			t.Errorf("area %s has %d sub goals, want 1", a.Name, len(subs))
		}
		if subs[0].ChatMessageID != msg.ID {
			t.Errorf("sub goal not linked to bot message: %q", subs[0].ChatMessageID)
		}
	}
}

func TestUpsertLifeAreaReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")
	conv, _ := s.FindOrCreateConversation(ctx, u.ID, "Chat")

	for i := 0; i < 2; i++ {
		_, err := s.RecordBotTurn(ctx, BotTurn{
			ConversationID: conv.ID,
			UserID:         u.ID,
			Reply:          "ok",
			Goal:           &GoalInput{Title: fmt.Sprintf("goal %d", i), AreaName: "Health"},
		})
		if err != nil {
			t.Fatalf("RecordBotTurn failed: %v", err)
		}
	}

	areas, _ := s.ListLifeAreas(ctx, u.ID)
	if len(areas) != 1 {
		t.Fatalf("areas = %v, want single Health area", areas)
	}
	subs, _ := s.ListSubGoals(ctx, areas[0].ID)
	if len(subs) != 2 {
		t.Errorf("sub goals = %d, want 2", len(subs))
	}
}

func TestGoalDefaultArea(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")
	conv, _ := s.FindOrCreateConversation(ctx, u.ID, "Chat")

	if _, err := s.RecordBotTurn(ctx, BotTurn{
		ConversationID: conv.ID,
		UserID:         u.ID,
		Reply:          "ok",
		Goal:           &GoalInput{Title: "read more"},
	}); err != nil {
		t.Fatalf("RecordBotTurn failed: %v", err)
	}

	areas, _ := s.ListLifeAreas(ctx, u.ID)
	if len(areas) != 1 || areas[0].Name != "General" {
		t.Errorf("areas = %v, want default General", areas)
	}
	if areas[0].Color != areaPalette[0] {
		t.Errorf("first area color = %q, want first palette entry", areas[0].Color)
	}
}

func TestLastMessageAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")

	if _, err := s.LastMessageAt(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for silent user, got %v", err)
	}

	conv, _ := s.FindOrCreateConversation(ctx, u.ID, "Chat")
	m, _ := s.AppendMessage(ctx, conv.ID, SenderUser, "hello")

	at, err := s.LastMessageAt(ctx, u.ID)
	if err != nil {
		t.Fatalf("LastMessageAt failed: %v", err)
	}
	if !at.Equal(m.CreatedAt) {
		t.Errorf("LastMessageAt = %v, want %v", at, m.CreatedAt)
	}
}

func TestReminderCompleteAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "15551234567")

	r, _ := s.CreateReminder(ctx, u.ID, "water plants", nil)
	if err := s.CompleteReminder(ctx, r.ID); err != nil {
		t.Fatalf("CompleteReminder failed: %v", err)
	}
	got, _ := s.GetReminder(ctx, r.ID)
	if !got.IsCompleted {
		t.Error("reminder not completed")
	}
	if err := s.DeleteReminder(ctx, r.ID); err != nil {
		t.Fatalf("DeleteReminder failed: %v", err)
	}
	if err := s.DeleteReminder(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
