// Package calendar holds the day-boundary arithmetic used for appointment
// filtering, dashboard counters and the reminder window. All boundaries are
// computed in one explicit location instead of the process-local zone.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Window is a closed time interval [From, To].
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Calendar computes local-day boundaries in a fixed location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Calendar for loc. A nil loc means time.Local.
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc, now: time.Now}
}

// LoadLocation resolves a zone name; "" and "Local" map to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// WithClock returns a copy of c that reads the current time from now.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Location returns the calendar's zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant in the calendar's zone.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// StartOfDay returns 00:00:00.000 of t's calendar day.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func (c *Calendar) EndOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), c.loc)
}

// Day returns the full calendar day containing t.
func (c *Calendar) Day(t time.Time) Window {
	return Window{From: c.StartOfDay(t), To: c.EndOfDay(t)}
}

// Today returns 00:00:00.000 of the current day.
func (c *Calendar) Today() time.Time {
	return c.StartOfDay(c.Now())
}

// Tomorrow returns the full calendar day after today.
func (c *Calendar) Tomorrow() Window {
	y, m, d := c.Now().Date()
	return c.Day(time.Date(y, m, d+1, 12, 0, 0, 0, c.loc))
}

// ParseDate accepts YYYY-MM-DD (read as a day in the calendar's zone) or an
// RFC3339 instant (converted to the calendar's zone).
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, c.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected %s or RFC3339", s, DateLayout)
	}
	return t.In(c.loc), nil
}
