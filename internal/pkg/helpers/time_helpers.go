package helpers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DateLayout is the canonical form stored in DATE columns
const DateLayout = "2006-01-02"

var (
	isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	brDate        = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// Layouts tried, in order, for free-form date strings
var fallbackLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// NormalizeDate converts a date-like value into "YYYY-MM-DD". It accepts
// time.Time, ISO strings (anything starting with YYYY-MM-DD), Brazilian
// DD/MM/YYYY strings and a handful of textual layouts. Empty or unparsable
// input yields nil so the column is stored as NULL.
func NormalizeDate(input interface{}) interface{} {
	switch v := input.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil {
			return nil
		}
		return NormalizeDate(*v)
	case string:
		return normalizeDateString(v)
	case bool:
		return nil
	default:
		return normalizeDateString(fmt.Sprint(v))
	}
}

func normalizeDateString(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if isoDatePrefix.MatchString(s) {
		d := s[:10]
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil
		}
		return d
	}
	if m := brDate.FindStringSubmatch(s); m != nil {
		d := m[3] + "-" + m[2] + "-" + m[1]
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil
		}
		return d
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return nil
}

// StartOfDay truncates t to local midnight
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
