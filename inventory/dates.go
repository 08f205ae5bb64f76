package inventory

import (
	"strings"
	"time"
)

// Accepted expiry layouts, tried in order. Layouts without a zone are read in
// the normalizer's location.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 2 2006",
}

var nullExpiryValues = map[string]bool{
	"":     true,
	"None": true,
	"null": true,
}

type Normalizer struct {
	Location *time.Location
}

var defaultNormalizer = Normalizer{Location: time.UTC}

// NormalizeExpiry converts a raw expiry string into a point in time. Empty and
// null-like values, and anything that does not parse, come back as nil.
func NormalizeExpiry(raw *string) *time.Time {
	return defaultNormalizer.Normalize(raw)
}

func (normalizer Normalizer) Normalize(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if nullExpiryValues[value] {
		return nil
	}

	loc := normalizer.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range expiryLayouts {
		parsed, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		return &parsed
	}
	return nil
}
