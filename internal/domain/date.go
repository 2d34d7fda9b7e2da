package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for forecast keys and
// delivery dates.
const DateLayout = "2006-01-02"

// Date is a calendar day. The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate returns the calendar day of the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO date. Values carrying a time part
// ("2025-01-16T00:00:00Z") are accepted and truncated to their date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// ISOWeek returns the ISO 8601 year and week number of the day.
func (d Date) ISOWeek() WeekKey {
	y, w := d.t.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

// Key formats the date as YYYY-MM-DD.
func (d Date) Key() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) String() string { return d.Key() }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Key())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Key(), nil
}

// WeekKey identifies an ISO calendar week.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// Monday returns the first day of the ISO week.
func (k WeekKey) Monday() Date {
	// January 4th is always in ISO week 1.
	jan4 := NewDate(k.Year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDays(-offset + (k.Week-1)*7)
}

// Previous returns the ISO week before k, crossing year boundaries.
func (k WeekKey) Previous() WeekKey {
	return k.Monday().AddDays(-7).ISOWeek()
}

// Next returns the ISO week after k, crossing year boundaries.
func (k WeekKey) Next() WeekKey {
	return k.Monday().AddDays(7).ISOWeek()
}

// Valid reports whether the week exists in its ISO year.
func (k WeekKey) Valid() bool {
	if k.Week < 1 || k.Week > 53 {
		return false
	}
	return k.Monday().ISOWeek() == k
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", k.Year, k.Week)
}
