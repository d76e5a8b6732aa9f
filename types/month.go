package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Month identifies one calendar month in the billing ledger.
// Its canonical wire form is "YYYY-MM". The zero value is "no month"
// and formats as an empty string.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for unmarshalling.
type Month struct {
	Year int        `json:"year"`
	Mon  time.Month `json:"month"`
}

// ParseMonth parses a "YYYY-MM" string into a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("types: parse month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Mon: t.Month()}, nil
}

// MustParseMonth is like ParseMonth but panics on error. Use for fixtures.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the calendar month containing t.
// Returns the zero Month for the zero time.
func MonthOf(t time.Time) Month {
	if t.IsZero() {
		return Month{}
	}
	return Month{Year: t.Year(), Mon: t.Month()}
}

// IsZero reports whether m is the "no month" value.
func (m Month) IsZero() bool { return m.Year == 0 && m.Mon == 0 }

// String returns the canonical "YYYY-MM" form, or "" for the zero Month.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the month immediately after m.
func (m Month) Next() Month {
	return MonthOf(m.Time().AddDate(0, 1, 0))
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Mon < other.Mon)
}

// After reports whether m is strictly later than other.
func (m Month) After(other Month) bool {
	return other.Before(m)
}

// Equal reports whether m and other are the same calendar month.
func (m Month) Equal(other Month) bool {
	return m.Year == other.Year && m.Mon == other.Mon
}

// Span counts the calendar months from m through end, inclusive.
// Span of a month with itself is 1. Returns 0 when end is before m.
func (m Month) Span(end Month) int {
	n := (end.Year-m.Year)*12 + int(end.Mon) - int(m.Mon) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Range returns every month from m through end, inclusive, oldest first.
// Returns nil when end is before m.
func (m Month) Range(end Month) []Month {
	if end.Before(m) {
		return nil
	}
	months := make([]Month, 0, m.Span(end))
	for cur := m; !cur.After(end); cur = cur.Next() {
		months = append(months, cur)
	}
	return months
}

// MarshalJSON implements json.Marshaler using the "YYYY-MM" form.
func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
