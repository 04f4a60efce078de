package scope

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"medireach/internal/calendar"
	apperrors "medireach/internal/errors"
	"medireach/internal/model"
)

// Query is a store-agnostic appointment predicate. Zero-valued fields do not
// constrain the result; set fields are ANDed together.
type Query struct {
	PatientID    *uuid.UUID
	Status       *model.AppointmentStatus
	Statuses     []model.AppointmentStatus
	DateFrom     *time.Time // inclusive
	DateTo       *time.Time // inclusive
	ReminderSent *bool
}

// Filters are the optional list filters a caller can pass.
type Filters struct {
	Status string
	Date   string
}

// Build composes the policy's base predicate with the caller's filters. A
// date filter narrows to the full calendar day [00:00:00.000, 23:59:59.999].
func Build(p Policy, f Filters, cal *calendar.Calendar) (Query, error) {
	q := p.Filter()

	if f.Status != "" {
		status := model.AppointmentStatus(strings.TrimSpace(f.Status))
		if !status.Valid() {
			return Query{}, apperrors.ErrInvalidStatus
		}
		q.Status = &status
	}

	if f.Date != "" {
		d, err := cal.ParseDate(strings.TrimSpace(f.Date))
		if err != nil {
			return Query{}, apperrors.ErrInvalidDate
		}
		day := cal.Day(d)
		q.DateFrom, q.DateTo = &day.From, &day.To
	}

	return q, nil
}

// ReminderCandidates selects active, not yet reminded appointments dated
// inside w.
func ReminderCandidates(w calendar.Window) Query {
	from, to := w.From, w.To
	sent := false
	return Query{
		Statuses:     append([]model.AppointmentStatus(nil), model.ActiveStatuses...),
		DateFrom:     &from,
		DateTo:       &to,
		ReminderSent: &sent,
	}
}

// Matches evaluates q against a single appointment.
func (q Query) Matches(a *model.Appointment) bool {
	if a == nil {
		return false
	}
	if q.PatientID != nil && a.PatientID != *q.PatientID {
		return false
	}
	if q.Status != nil && a.Status != *q.Status {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.DateFrom != nil && a.Date.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && a.Date.After(*q.DateTo) {
		return false
	}
	if q.ReminderSent != nil && a.ReminderSent != *q.ReminderSent {
		return false
	}
	return true
}

// SortAppointments orders by date ascending, then time ascending. Time is
// compared as a plain string.
func SortAppointments(items []model.Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].Time < items[j].Time
	})
}
