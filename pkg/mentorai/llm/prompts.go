package llm

import (
	"fmt"
	"time"
)

// chatSystemPrompt instructs the model to answer either as plain text or as
// the structured JSON envelope the interpreter understands. Plain text is
// the dominant path; the JSON shape only appears when the user asked for a
// reminder, goal, journal entry or calendar event.
const chatSystemPrompt = `You are %s, a warm and practical personal mentor.
Keep replies short and conversational.

When the user asks you to remember, schedule or track something, respond with
a single JSON object (no markdown fences) using any subset of these keys:
  "reply": what you say back to the user (always include it),
  "reminder": {"message": string, "remind_at": ISO-8601 string},
  "goal": {"title": string, "description": string, "due_date": ISO-8601 string, "area_name": string},
  "life_areas": [{"name": string, "sub_area": string, "color": hex string}],
  "journal": {"content": string, "emoji": string, "category": string},
  "calendar_event": {"title": string, "description": string, "start_time": ISO-8601 string, "end_time": ISO-8601 string}.
For ordinary conversation, answer with plain text only.
The user's local time is %s.`

// ChatMessages assembles the interactive-chat window: system prompt, the
// rolling history (oldest first) and the new user message.
func ChatMessages(assistantName string, now time.Time, history []Message, userMessage string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{
		Role:    "system",
		Content: fmt.Sprintf(chatSystemPrompt, assistantName, now.Format("Monday, 2 January 2006 15:04 MST")),
	})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: userMessage})
	return msgs
}

// ReminderNudgeMessages asks for an encouraging notification for a due
// reminder, referencing its original time.
func ReminderNudgeMessages(assistantName, reminderText string, remindAt time.Time) []Message {
	return []Message{
		{Role: "system", Content: fmt.Sprintf(
			"You are %s. Write one short, encouraging notification (max two sentences, no JSON) reminding the user about their task.", assistantName)},
		{Role: "user", Content: fmt.Sprintf(
			"Task: %q, originally scheduled for %s.", reminderText, remindAt.Format("Monday 15:04"))},
	}
}

// InactivityNudgeMessages asks for a motivational check-in for a user who
// has been silent.
func InactivityNudgeMessages(assistantName, displayName string, idle time.Duration) []Message {
	name := displayName
	if name == "" {
		name = "the user"
	}
	return []Message{
		{Role: "system", Content: fmt.Sprintf(
			"You are %s. Write one short, friendly motivational check-in (max two sentences, no JSON).", assistantName)},
		{Role: "user", Content: fmt.Sprintf(
			"%s has not chatted in %s. Nudge them to share how their goals are going.", name, idle.Round(time.Hour))},
	}
}
