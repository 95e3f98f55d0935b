package interpret

import (
	"testing"
	"time"
)

// Tuesday afternoon.
var dateNow = time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

func TestParseISO(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-03-10T15:04:05Z", time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC), true},
		{"2026-03-10T15:04:05-03:00", time.Date(2026, 3, 10, 18, 4, 5, 0, time.UTC), true},
		{"2026-03-10 15:04", time.Date(2026, 3, 10, 15, 4, 0, 0, loc), true},
		{"2026-03-10", time.Date(2026, 3, 10, 0, 0, 0, 0, loc), true},
		{"not-a-date", time.Time{}, false},
		{"", time.Time{}, false},
		{"tomorrow", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseISO(tt.in, loc)
		if ok != tt.ok {
			t.Errorf("ParseISO(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseISO(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractWhen(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"in minutes", "ping me in 30 minutes", dateNow.Add(30 * time.Minute)},
		{"in hours", "dentist in 2 hours", dateNow.Add(2 * time.Hour)},
		{"in days", "follow up in 3 days", dateNow.AddDate(0, 0, 3)},
		{"tomorrow at pm", "call mom tomorrow at 5pm", time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)},
		{"tomorrow default", "pack bags tomorrow", time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)},
		{"tonight", "review notes tonight", time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)},
		{"weekday morning", "review goals friday morning", time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)},
		{"next same weekday", "standup tuesday", time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)},
		{"bare time future", "gym at 6pm", time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)},
		{"bare time passed", "gym at 8am", time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)},
		{"noon today", "lunch at noon today", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		{"midnight tomorrow", "deploy tomorrow at midnight", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"minutes clock", "bus at 7:45am tomorrow", time.Date(2026, 3, 11, 7, 45, 0, 0, time.UTC)},
		{"next week", "plan sprint next week", time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractWhen(tt.in, dateNow)
			if !ok {
				t.Fatalf("ExtractWhen(%q) did not match", tt.in)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ExtractWhen(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractWhenNoMatch(t *testing.T) {
	for _, in := range []string{"call mom", "", "buy milk soon", "great job"} {
		if got, ok := ExtractWhen(in, dateNow); ok {
			t.Errorf("ExtractWhen(%q) = %v, want no match", in, got)
		}
	}
}

func TestResolveWhenPriority(t *testing.T) {
	// Valid ISO wins over the text.
	got := ResolveWhen("2026-04-01T10:00:00Z", "tomorrow at 5pm", dateNow, time.UTC)
	if got == nil || !got.Equal(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ResolveWhen ISO = %v", got)
	}
	// Invalid ISO falls back to text extraction.
	got = ResolveWhen("not-a-date", "tomorrow at 5pm", dateNow, time.UTC)
	if got == nil || !got.Equal(time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("ResolveWhen fallback = %v", got)
	}
	// Both fail: nil, never an error.
	if got = ResolveWhen("not-a-date", "call mom", dateNow, time.UTC); got != nil {
		t.Errorf("ResolveWhen = %v, want nil", got)
	}
}
