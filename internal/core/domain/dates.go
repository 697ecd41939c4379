package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// timestampLayouts are tried in order when a date-time arrives as a string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

// Date is a calendar date without time of day (LocalDate on the server).
// The API may send it as "2024-05-01" or as the array [2024,5,1].
type Date struct {
	time.Time
}

// Timestamp is a date-time without zone (LocalDateTime on the server),
// interpreted as UTC. Accepted forms: ISO-8601 strings with or without
// offset, the array [y,m,d,h,mi,s,ns] and epoch milliseconds.
type Timestamp struct {
	time.Time
}

// ParseDate reads a YYYY-MM-DD string, as typed on the command line.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	t, err := parseServerTime(data)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if t.IsZero() {
		*d = Date{}
		return nil
	}
	*d = NewDate(t)
	return nil
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	t, err := parseServerTime(data)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*ts = Timestamp{t}
	return nil
}

func parseServerTime(data []byte) (time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}, nil
	}

	switch data[0] {
	case '[':
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil {
			return time.Time{}, err
		}
		return timeFromParts(parts)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}, err
		}
		return parseTimeString(s)
	default:
		var millis int64
		if err := json.Unmarshal(data, &millis); err != nil {
			return time.Time{}, fmt.Errorf("unsupported time value %s", data)
		}
		return time.UnixMilli(millis).UTC(), nil
	}
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// timeFromParts decodes Jackson's array form. Missing trailing components
// default to zero.
func timeFromParts(parts []int) (time.Time, error) {
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("time array needs at least 3 elements, got %d", len(parts))
	}
	v := make([]int, 7)
	copy(v, parts)
	return time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], v[6], time.UTC), nil
}
