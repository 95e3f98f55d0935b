// Package interpret – dates.go normalizes date fields from LLM output.
// Strict ISO-8601 is accepted directly; anything else is re-derived by
// running a natural language parser over the textual field of the same
// object in the user's timezone.
package interpret

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are the accepted strict date/time formats, most specific first.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	reInDuration = regexp.MustCompile(`\bin\s+(\d+)\s*(minute|min|hour|hr|day|week)s?\b`)
	reAtTime     = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	reClockTime  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	reTomorrow   = regexp.MustCompile(`\btomorrow\b`)
	reToday      = regexp.MustCompile(`\btoday\b|\btonight\b`)
	reNextWeek   = regexp.MustCompile(`\bnext\s+week\b`)
	reWeekday    = regexp.MustCompile(`\b(?:next\s+|on\s+|this\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reDaypart    = regexp.MustCompile(`\b(morning|afternoon|evening|night)\b`)
	reNoon       = regexp.MustCompile(`\bnoon\b|\bmidday\b`)
	reMidnight   = regexp.MustCompile(`\bmidnight\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dayparts maps a vague time of day to a concrete hour.
var dayparts = map[string]int{
	"morning":   9,
	"afternoon": 15,
	"evening":   19,
	"night":     21,
}

// ParseISO parses a strict ISO-8601-ish timestamp. Layouts without an
// offset are interpreted in loc.
func ParseISO(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for i, layout := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if i < 2 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractWhen attempts to interpret a natural language time reference found
// inside free text ("call mom tomorrow at 5pm", "dentist in 2 hours",
// "review goals friday morning"). Returns false when no pattern matches.
//
// Resolution rules:
//   - "in N minutes/hours/days/weeks" is relative to now
//   - a weekday resolves to the next occurrence (never today)
//   - a bare time of day that already passed today rolls to tomorrow
//   - dayparts map to fixed hours (morning 9, afternoon 15, evening 19, night 21)
//   - a matched day with no time defaults to 9:00
func ExtractWhen(text string, now time.Time) (time.Time, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return time.Time{}, false
	}

	// "in N minutes/hours/days/weeks"
	if m := reInDuration.FindStringSubmatch(normalized); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "minute", "min":
			return now.Add(time.Duration(n) * time.Minute), true
		case "hour", "hr":
			return now.Add(time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, n), true
		case "week":
			return now.AddDate(0, 0, 7*n), true
		}
	}

	day := now
	haveDay := false

	switch {
	case reTomorrow.MatchString(normalized):
		day = now.AddDate(0, 0, 1)
		haveDay = true
	case reNextWeek.MatchString(normalized):
		day = now.AddDate(0, 0, 7)
		haveDay = true
	case reToday.MatchString(normalized):
		haveDay = true
	default:
		if m := reWeekday.FindStringSubmatch(normalized); m != nil {
			target := weekdays[m[1]]
			delta := (int(target) - int(now.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			day = now.AddDate(0, 0, delta)
			haveDay = true
		}
	}

	hour, minute, haveTime := extractClock(normalized)

	// "tonight" with no explicit clock means the night daypart.
	if !haveTime && strings.Contains(normalized, "tonight") {
		hour, minute, haveTime = dayparts["night"], 0, true
	}
	if !haveTime {
		if m := reDaypart.FindStringSubmatch(normalized); m != nil {
			hour, minute, haveTime = dayparts[m[1]], 0, true
		}
	}

	if !haveDay && !haveTime {
		return time.Time{}, false
	}
	if !haveTime {
		hour, minute = 9, 0
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	if !haveDay && !at.After(now) {
		// Bare time already passed today: roll to tomorrow.
		at = at.AddDate(0, 0, 1)
	}
	return at, true
}

// extractClock pulls an explicit clock time out of the text.
func extractClock(s string) (hour, minute int, ok bool) {
	if reNoon.MatchString(s) {
		return 12, 0, true
	}
	if reMidnight.MatchString(s) {
		return 0, 0, true
	}

	m := reAtTime.FindStringSubmatch(s)
	if m == nil {
		m = reClockTime.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ResolveWhen implements the date normalization policy: ISO first, then
// natural language extraction from fallbackText, else nil.
func ResolveWhen(value, fallbackText string, now time.Time, loc *time.Location) *time.Time {
	if t, ok := ParseISO(value, loc); ok {
		return &t
	}
	if t, ok := ExtractWhen(fallbackText, now.In(loc)); ok {
		return &t
	}
	return nil
}
