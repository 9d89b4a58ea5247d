package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is a point in time stored as an RFC 3339 string.
// Empty or malformed stored values decode to the zero time instead of failing
// the whole document, matching how the site treats them when sorting.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t in UTC
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Now returns the current time as a Timestamp
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// MarshalJSON encodes the timestamp as an RFC 3339 string; zero encodes as ""
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 strings, date-only strings and null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseTime(s)
	return nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
