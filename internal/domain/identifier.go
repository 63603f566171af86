package domain

import (
	"regexp"
	"strings"
)

var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// MinSuffixDigits is the shortest digits-only input allowed to match the tail of a stored
// phone, so "5550101" finds "+1-555-0101" without a short input matching everyone.
const MinSuffixDigits = 7

// IdentifierLookup holds every interpretation of a scanned or typed identifier.
type IdentifierLookup struct {
	Raw     string // trimmed input, matched exactly
	Digits  string // digits of a phone-shaped input, matched against digits of the stored phone
	UUID    string // first embedded UUID, lowercased, matched against badge ids
	DataURL bool   // input is an inline image
}

func ParseIdentifier(raw string) IdentifierLookup {
	s := strings.TrimSpace(raw)
	l := IdentifierLookup{Raw: s}

	// IDs such as passport numbers can end in a stranger's phone digits.
	if phoneRegex.MatchString(s) {
		var b strings.Builder
		for _, r := range s {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		l.Digits = b.String()
	}

	if m := uuidPattern.FindString(s); m != "" {
		l.UUID = strings.ToLower(m)
	}
	l.DataURL = strings.HasPrefix(s, "data:image/")
	return l
}
