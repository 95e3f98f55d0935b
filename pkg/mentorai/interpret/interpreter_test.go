package interpret

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

func TestInterpretPlainText(t *testing.T) {
	out := Interpret("Just chatting, no structure", testNow, time.UTC)
	if out.Structured {
		t.Error("plain text flagged as structured")
	}
	if out.Reply != "Just chatting, no structure" {
		t.Errorf("reply = %q", out.Reply)
	}
	if out.Reminder != nil || out.Goal != nil || out.Journal != nil || out.Event != nil || len(out.LifeAreas) != 0 {
		t.Error("plain text produced side effects")
	}
}

func TestInterpretReminderWithBadDate(t *testing.T) {
	raw := `{"reply":"Noted!","reminder":{"message":"call mom","remind_at":"not-a-date"}}`
	out := Interpret(raw, testNow, time.UTC)
	if !out.Structured {
		t.Fatal("expected structured outcome")
	}
	if out.Reply != "Noted!" {
		t.Errorf("reply = %q", out.Reply)
	}
	if out.Reminder == nil {
		t.Fatal("reminder dropped")
	}
	// "call mom" carries no time reference: extraction fails and the field
	// stays nil rather than rejecting the reminder.
	if out.Reminder.RemindAt != nil {
		t.Errorf("remind_at = %v, want nil", out.Reminder.RemindAt)
	}
}

func TestInterpretReminderDateFromText(t *testing.T) {
	raw := `{"reply":"Ok","reminder":{"message":"call mom tomorrow at 5pm","remind_at":"whenever"}}`
	out := Interpret(raw, testNow, time.UTC)
	if out.Reminder == nil || out.Reminder.RemindAt == nil {
		t.Fatal("expected remind_at extracted from message text")
	}
	want := time.Date(2026, time.March, 11, 17, 0, 0, 0, time.UTC)
	if !out.Reminder.RemindAt.Equal(want) {
		t.Errorf("remind_at = %v, want %v", out.Reminder.RemindAt, want)
	}
}

func TestInterpretReminderISODate(t *testing.T) {
	raw := `{"reply":"Ok","reminder":{"message":"dentist","remind_at":"2026-04-01T09:30:00Z"}}`
	out := Interpret(raw, testNow, time.UTC)
	if out.Reminder == nil || out.Reminder.RemindAt == nil {
		t.Fatal("ISO remind_at not parsed")
	}
	want := time.Date(2026, time.April, 1, 9, 30, 0, 0, time.UTC)
	if !out.Reminder.RemindAt.Equal(want) {
		t.Errorf("remind_at = %v, want %v", out.Reminder.RemindAt, want)
	}
}

func TestInterpretCalendarEndDefault(t *testing.T) {
	raw := `{"reply":"Scheduled","calendar_event":{"title":"standup","start_time":"2026-03-12T10:00:00Z","end_time":"later"}}`
	out := Interpret(raw, testNow, time.UTC)
	if out.Event == nil || out.Event.StartTime == nil {
		t.Fatal("event start not parsed")
	}
	if out.Event.EndTime == nil {
		t.Fatal("end time not defaulted")
	}
	if got, want := *out.Event.EndTime, out.Event.StartTime.Add(time.Hour); !got.Equal(want) {
		t.Errorf("end = %v, want start+1h = %v", got, want)
	}
}

func TestInterpretGoalAndAreas(t *testing.T) {
	raw := `{"reply":"Nice goal!","goal":{"title":"Run 5k","description":"every week","area_name":"Health"},"life_areas":[{"name":"Career","sub_area":"Learn Go","color":"#112233"},{"name":""}]}`
	out := Interpret(raw, testNow, time.UTC)
	if out.Goal == nil || out.Goal.Title != "Run 5k" || out.Goal.AreaName != "Health" {
		t.Errorf("goal = %+v", out.Goal)
	}
	if out.Goal.DueDate != nil {
		t.Errorf("due date = %v, want nil (no time reference)", out.Goal.DueDate)
	}
	if len(out.LifeAreas) != 1 || out.LifeAreas[0].SubArea != "Learn Go" {
		t.Errorf("life areas = %+v (nameless entries must be skipped)", out.LifeAreas)
	}
}

func TestInterpretFencedJSON(t *testing.T) {
	raw := "Here you go:\n```json\n{\"reply\":\"Done\",\"journal\":{\"content\":\"good day\",\"emoji\":\"🙂\",\"category\":\"mood\"}}\n```"
	out := Interpret(raw, testNow, time.UTC)
	if !out.Structured {
		t.Fatal("fenced JSON not repaired")
	}
	if out.Journal == nil || out.Journal.Content != "good day" {
		t.Errorf("journal = %+v", out.Journal)
	}
}

func TestInterpretMissingReply(t *testing.T) {
	raw := `{"reminder":{"message":"water plants tomorrow"}}`
	out := Interpret(raw, testNow, time.UTC)
	if !out.Structured || out.Reminder == nil {
		t.Fatal("expected structured reminder outcome")
	}
	if out.Reply == "" {
		t.Error("empty reply must fall back to a confirmation")
	}
}

func TestInterpretBrokenJSONFallsBack(t *testing.T) {
	raw := `{"reply": "unterminated`
	out := Interpret(raw, testNow, time.UTC)
	if out.Structured {
		t.Error("unparseable JSON flagged structured")
	}
	if out.Reply != raw {
		t.Errorf("reply = %q, want the raw text", out.Reply)
	}
}
