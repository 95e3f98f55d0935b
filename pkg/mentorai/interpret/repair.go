// Package interpret turns raw LLM output into a typed outcome: a reply plus
// optional side-effect records (reminder, goal, journal, calendar event,
// life areas). Output that is not JSON — the dominant path for ordinary
// conversation — becomes a plain reply.
package interpret

import (
	"regexp"
	"strings"
)

var (
	reCodeFence      = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	reTrailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	reSingleQuoteKey = regexp.MustCompile(`([{,]\s*)'([^']*)'\s*:`)
)

// smartQuotes maps typographic quotes some models emit to plain ASCII.
var smartQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// RepairJSON applies best-effort fixes to almost-JSON model output: strips
// markdown code fences, extracts the outermost object, normalizes smart
// quotes, rewrites single-quoted keys and removes trailing commas. It never
// fails — callers re-parse the result and fall back to plain text on error.
func RepairJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	// Extract the outermost {...} — models like to wrap JSON in prose.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	s = smartQuotes.Replace(s)
	s = reSingleQuoteKey.ReplaceAllString(s, `$1"$2":`)
	s = reTrailingComma.ReplaceAllString(s, "$1")

	return s
}
