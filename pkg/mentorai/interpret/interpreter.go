package interpret

import (
	"encoding/json"
	"strings"
	"time"
)

// payload is the loosely-typed envelope the model may answer with. Any
// subset of keys can appear.
type payload struct {
	Reply         string          `json:"reply"`
	Reminder      *reminderField  `json:"reminder"`
	Goal          *goalField      `json:"goal"`
	LifeAreas     []lifeAreaField `json:"life_areas"`
	Journal       *journalField   `json:"journal"`
	CalendarEvent *eventField     `json:"calendar_event"`
}

type reminderField struct {
	Message  string `json:"message"`
	RemindAt string `json:"remind_at"`
}

type goalField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	AreaName    string `json:"area_name"`
}

type lifeAreaField struct {
	Name    string `json:"name"`
	SubArea string `json:"sub_area"`
	Color   string `json:"color"`
}

type journalField struct {
	Content  string `json:"content"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
}

type eventField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// Outcome is the normalized result of interpreting model output. Dates are
// resolved; nil time fields mean extraction failed and the record is stored
// without one.
type Outcome struct {
	// Reply is what the bot says back. Always set.
	Reply string

	// Structured reports whether the output parsed as the JSON envelope.
	Structured bool

	Reminder  *Reminder
	Goal      *Goal
	LifeAreas []LifeArea
	Journal   *Journal
	Event     *Event
}

// Reminder is a normalized reminder side effect.
type Reminder struct {
	Message  string
	RemindAt *time.Time
}

// Goal is a normalized goal side effect.
type Goal struct {
	Title       string
	Description string
	DueDate     *time.Time
	AreaName    string
}

// LifeArea is a normalized life-area side effect.
type LifeArea struct {
	Name    string
	SubArea string
	Color   string
}

// Journal is a normalized journal side effect.
type Journal struct {
	Content  string
	Emoji    string
	Category string
}

// Event is a normalized calendar-event side effect.
type Event struct {
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
}

// confirmationReply covers structured payloads that forgot the reply key.
const confirmationReply = "Got it — I've noted that for you."

// Interpret parses raw model output. It first attempts a strict JSON parse,
// then a repair pass; when both fail the text is treated as a plain reply
// with no side effects. now and loc drive date normalization.
func Interpret(raw string, now time.Time, loc *time.Location) Outcome {
	if loc == nil {
		loc = time.UTC
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		repaired := RepairJSON(raw)
		if err := json.Unmarshal([]byte(repaired), &p); err != nil {
			return Outcome{Reply: strings.TrimSpace(raw)}
		}
	}
	// A JSON scalar ("just text in quotes") parses but carries nothing.
	if p.Reply == "" && p.Reminder == nil && p.Goal == nil && len(p.LifeAreas) == 0 &&
		p.Journal == nil && p.CalendarEvent == nil {
		return Outcome{Reply: strings.TrimSpace(raw)}
	}

	out := Outcome{Reply: p.Reply, Structured: true}
	if out.Reply == "" {
		out.Reply = confirmationReply
	}

	if r := p.Reminder; r != nil && r.Message != "" {
		out.Reminder = &Reminder{
			Message:  r.Message,
			RemindAt: ResolveWhen(r.RemindAt, r.Message, now, loc),
		}
	}

	if g := p.Goal; g != nil && g.Title != "" {
		out.Goal = &Goal{
			Title:       g.Title,
			Description: g.Description,
			DueDate:     ResolveWhen(g.DueDate, g.Title+" "+g.Description, now, loc),
			AreaName:    g.AreaName,
		}
	}

	for _, la := range p.LifeAreas {
		if la.Name == "" {
			continue
		}
		out.LifeAreas = append(out.LifeAreas, LifeArea(la))
	}

	if j := p.Journal; j != nil && j.Content != "" {
		out.Journal = &Journal{Content: j.Content, Emoji: j.Emoji, Category: j.Category}
	}

	if e := p.CalendarEvent; e != nil && e.Title != "" {
		start := ResolveWhen(e.StartTime, e.Title+" "+e.Description, now, loc)
		end := ResolveWhen(e.EndTime, "", now, loc)
		// End defaults to exactly one hour after start.
		if end == nil && start != nil {
			t := start.Add(time.Hour)
			end = &t
		}
		out.Event = &Event{
			Title:       e.Title,
			Description: e.Description,
			StartTime:   start,
			EndTime:     end,
		}
	}

	return out
}
