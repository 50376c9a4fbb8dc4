package domain

import (
	"fmt"
	"time"
)

// Date is a timezone-free civil calendar day. Both the engagement ledger and
// the chat layer make their day-boundary decisions against this type so the
// whole application agrees on what "today" means.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 date string (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String returns the date in ISO-8601 form, which is also the form stored
// in the database.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Prev returns the previous calendar day.
func (d Date) Prev() Date {
	return d.AddDays(-1)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return d.AddDays(1)
}

// AddDays returns the date n days after d. Negative n goes backwards.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return DateOf(t.AddDate(0, 0, n))
}

// IsZero reports whether d is the zero value, used for "no date recorded".
func (d Date) IsZero() bool {
	return d == Date{}
}
