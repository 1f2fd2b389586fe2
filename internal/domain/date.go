package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used in persisted documents.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component.
// It marshals as "YYYY-MM-DD" and also accepts RFC 3339 timestamps on read.
// Stored text in any other form is kept verbatim and written back unchanged,
// so a hand-edited date never makes a whole collection unreadable.
type Date struct {
	time.Time

	// raw holds stored text that didn't parse as a date.
	raw string
}

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" or RFC 3339 string.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.UTC()), nil
}

// IsZero reports whether d holds neither a date nor preserved text.
func (d Date) IsZero() bool {
	return d.raw == "" && d.Time.IsZero()
}

// Parsed reports whether d holds a real calendar date.
func (d Date) Parsed() bool {
	return !d.Time.IsZero()
}

// String returns the date as "YYYY-MM-DD", the preserved text, or "".
func (d Date) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.Time.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Empty strings and null decode
// to the zero date; unparseable strings are preserved as text.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{raw: s}
		return nil
	}
	*d = parsed
	return nil
}
