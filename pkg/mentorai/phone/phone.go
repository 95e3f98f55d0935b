// Package phone normalizes inbound sender identifiers (raw phone strings,
// "whatsapp:" prefixes, "+" signs) into the canonical digit form used to
// look up user profiles. SMS and WhatsApp go through the same normalization
// so a user reached on both channels resolves to the same profile.
package phone

import "strings"

// whatsappPrefix is the transport prefix Twilio puts on WhatsApp identities.
const whatsappPrefix = "whatsapp:"

// Canonical strips the "whatsapp:" prefix, the leading "+" and every
// non-digit character, returning the digits-only form.
func Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, whatsappPrefix)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LookupCandidates returns the candidate forms probed against stored profile
// numbers, tolerating inconsistent country-code storage: the canonical
// digits, the last 11 digits, "55" + last 11 digits, and "+" + digits.
// Candidates are de-duplicated and ordered most-specific first.
func LookupCandidates(raw string) []string {
	digits := Canonical(raw)
	if digits == "" {
		return nil
	}

	last11 := digits
	if len(digits) > 11 {
		last11 = digits[len(digits)-11:]
	}

	candidates := []string{
		digits,
		last11,
		"55" + last11,
		"+" + digits,
	}

	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// IsWhatsApp reports whether the raw identifier came from the WhatsApp
// transport.
func IsWhatsApp(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), whatsappPrefix)
}
