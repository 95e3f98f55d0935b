package poller

import (
	"strings"
	"time"
)

// urgencyClass is the keyword-derived bucket logged for each dispatched
// reminder. The suggested lead time flavors log output only; it never gates
// when the sweep fires.
type urgencyClass struct {
	Label string
	Lead  time.Duration
}

// urgencyLadder is evaluated top to bottom; first keyword hit wins.
var urgencyLadder = []struct {
	keywords []string
	class    urgencyClass
}{
	{[]string{"flight", "travel", "trip", "wedding", "ceremony"}, urgencyClass{"travel", 2 * time.Hour}},
	{[]string{"commute", "drive", "train", "bus"}, urgencyClass{"commute", time.Hour}},
	{[]string{"doctor", "dentist", "medical", "appointment", "medicine", "pill"}, urgencyClass{"medical", 45 * time.Minute}},
	{[]string{"meeting", "standup", "interview", "presentation"}, urgencyClass{"meeting", 30 * time.Minute}},
	{[]string{"workout", "gym", "exercise", "routine"}, urgencyClass{"routine", 20 * time.Minute}},
	{[]string{"urgent", "asap", "now", "immediately"}, urgencyClass{"urgent", 10 * time.Minute}},
	{[]string{"call", "phone", "ring"}, urgencyClass{"call", 15 * time.Minute}},
	{[]string{"clean", "laundry", "dishes", "chore", "groceries"}, urgencyClass{"chore", 5 * time.Minute}},
}

// defaultUrgency applies when no keyword matches.
var defaultUrgency = urgencyClass{"default", 30 * time.Minute}

// classifyUrgency buckets a reminder by keyword matching its text.
func classifyUrgency(message string) urgencyClass {
	lower := strings.ToLower(message)
	for _, entry := range urgencyLadder {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.class
			}
		}
	}
	return defaultUrgency
}
