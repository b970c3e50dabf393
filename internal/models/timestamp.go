package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Timestamp is the polymorphic timestamp shape used by opportunity records.
// The document API emits timestamps in several encodings depending on which
// client wrote the record: a backend wrapper object ({"_seconds": n,
// "_nanoseconds": n} or {"seconds": n, "nanos": n}), an epoch number (seconds
// or milliseconds), or a string (RFC3339, "2006-01-02", or a textual
// "Month DD, YYYY" form). Decoding never fails; an unrecognized value simply
// yields an unresolvable Timestamp.
type Timestamp struct {
	t     time.Time
	valid bool
	raw   string
}

// NewTimestamp wraps a concrete time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC(), valid: true}
}

// Resolve returns the parsed instant, or false if the source value matched no
// known encoding.
func (ts Timestamp) Resolve() (time.Time, bool) {
	return ts.t, ts.valid
}

// IsZero reports whether the timestamp carries no value at all.
func (ts Timestamp) IsZero() bool {
	return !ts.valid && ts.raw == ""
}

// Raw returns the original string form, if the value arrived as a string.
func (ts Timestamp) Raw() string {
	return ts.raw
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339))
}

// wrapperTimestamp matches the backend timestamp wrapper in both its public
// and serialized field spellings.
type wrapperTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanos        *int64 `json:"nanos"`
	UnderSeconds *int64 `json:"_seconds"`
	UnderNanos   *int64 `json:"_nanoseconds"`
}

// UnmarshalJSON tries, in order: wrapper object, epoch number, string,
// falling back to an unresolvable value. It never returns an error for a
// syntactically valid JSON value.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*ts = Timestamp{}
		return nil
	}

	// 1. Wrapper object exposing a seconds/nanos pair.
	if strings.HasPrefix(trimmed, "{") {
		var w wrapperTimestamp
		if err := json.Unmarshal(data, &w); err == nil {
			secs := w.Seconds
			nanos := w.Nanos
			if secs == nil {
				secs = w.UnderSeconds
				nanos = w.UnderNanos
			}
			if secs != nil {
				var n int64
				if nanos != nil {
					n = *nanos
				}
				*ts = Timestamp{t: time.Unix(*secs, n).UTC(), valid: true}
				return nil
			}
		}
		*ts = Timestamp{raw: trimmed}
		return nil
	}

	// 2. Epoch number. Values above ~year 2255 in seconds are treated as
	// milliseconds, which is how JS clients serialize Date.getTime().
	var epoch float64
	if err := json.Unmarshal(data, &epoch); err == nil {
		secs := int64(epoch)
		if secs > 9_000_000_000 {
			*ts = Timestamp{t: time.UnixMilli(secs).UTC(), valid: true}
		} else {
			*ts = Timestamp{t: time.Unix(secs, 0).UTC(), valid: true}
		}
		return nil
	}

	// 3. String.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if t, ok := ParseDateText(s); ok {
			*ts = Timestamp{t: t, valid: true, raw: s}
		} else {
			*ts = Timestamp{raw: s}
		}
		return nil
	}

	*ts = Timestamp{raw: trimmed}
	return nil
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	monthDayYearRe = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	isoPrefixRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// ParseDateText parses a date string using the same strategy chain on every
// surface: exact time layouts first, then a textual month-name pattern, then
// an ISO YYYY-MM-DD prefix. Returns false when nothing matches.
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		"01/02/2006",
		"1/2/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Textual month-name form, case-insensitive, tolerating ordinal suffixes.
	if m := monthDayYearRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			day := atoiSafe(m[2])
			year := atoiSafe(m[3])
			if day >= 1 && day <= 31 && year >= 1 {
				return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
			}
		}
	}

	// ISO prefix, e.g. "2025-11-18T..." with a malformed time suffix.
	if m := isoPrefixRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
