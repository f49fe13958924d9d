// Package civildate works with calendar dates ("YYYY-MM-DD") that carry no
// time zone. Dates in this layout order correctly as plain strings.
package civildate

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format for civil dates.
const Layout = "2006-01-02"

// Parse validates s and returns it in canonical form.
func Parse(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Format(Layout), nil
}

// Of returns the civil date of t as seen in loc (UTC when loc is nil).
func Of(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(Layout)
}

// Within reports whether date falls in [from, to], compared by day.
func Within(date, from, to string) bool {
	return date >= from && date <= to
}

// After reports whether a is a later day than b.
func After(a, b string) bool {
	return a > b
}

// LoadLocation resolves an IANA zone name. Empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// Clock reports the current civil date.
type Clock interface {
	Today() string
	Location() *time.Location
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a Clock for loc (UTC when nil).
func NewClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{loc: loc, now: time.Now}
}

// Today returns the current date in the clock's location.
func (c *SystemClock) Today() string { return Of(c.now(), c.loc) }

// Location returns the clock's location.
func (c *SystemClock) Location() *time.Location { return c.loc }

// Fixed is a Clock pinned to one date, in UTC.
type Fixed string

func (f Fixed) Today() string            { return string(f) }
func (f Fixed) Location() *time.Location { return time.UTC }
