// Package scope decides which appointments a caller may see and change.
//
// Every appointment operation resolves the caller to a Policy first. The
// policy supplies the base predicate for list queries, the per-record access
// check for get/update/delete, the patient reference for new bookings and the
// subset of fields the caller may write.
package scope

import (
	"github.com/google/uuid"

	apperrors "medireach/internal/errors"
	"medireach/internal/model"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   uuid.UUID
	Role model.Role
}

// Policy is the access rule set for one caller.
type Policy interface {
	// Filter is the base predicate every list query starts from.
	Filter() Query
	// CanAccess reports whether the caller may read or modify a.
	CanAccess(a *model.Appointment) bool
	// PatientForCreate resolves the patient a new booking belongs to.
	PatientForCreate(requested *uuid.UUID) (uuid.UUID, error)
	// RestrictPatch drops the submitted fields the caller may not write.
	RestrictPatch(p model.AppointmentPatch) model.AppointmentPatch
	// CanViewStats reports whether the caller may read dashboard counters.
	CanViewStats() bool
}

// For returns the policy for c.
func For(c Caller) (Policy, error) {
	switch c.Role {
	case model.RolePatient:
		if c.ID == uuid.Nil {
			return nil, apperrors.ErrRoleForbidden
		}
		return PatientScope{ID: c.ID}, nil
	case model.RoleStaff:
		return StaffScope{}, nil
	case model.RoleAdmin:
		return AdminScope{}, nil
	default:
		return nil, apperrors.ErrRoleForbidden
	}
}

// PatientScope limits a patient to their own appointments.
type PatientScope struct {
	ID uuid.UUID
}

func (s PatientScope) Filter() Query {
	id := s.ID
	return Query{PatientID: &id}
}

func (s PatientScope) CanAccess(a *model.Appointment) bool {
	return a != nil && a.PatientID == s.ID
}

// PatientForCreate always books for the patient themselves; any requested
// patient is ignored.
func (s PatientScope) PatientForCreate(_ *uuid.UUID) (uuid.UUID, error) {
	return s.ID, nil
}

// RestrictPatch keeps date, time, reason and notes only.
func (s PatientScope) RestrictPatch(p model.AppointmentPatch) model.AppointmentPatch {
	return model.AppointmentPatch{
		Date:   p.Date,
		Time:   p.Time,
		Reason: p.Reason,
		Notes:  p.Notes,
	}
}

func (s PatientScope) CanViewStats() bool { return false }

// StaffScope sees and edits every appointment.
type StaffScope struct{}

func (StaffScope) Filter() Query { return Query{} }

func (StaffScope) CanAccess(a *model.Appointment) bool { return a != nil }

func (StaffScope) PatientForCreate(requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, apperrors.ErrPatientIDRequired
	}
	return *requested, nil
}

// RestrictPatch keeps everything except the patient reference, which is
// immutable once booked.
func (StaffScope) RestrictPatch(p model.AppointmentPatch) model.AppointmentPatch {
	p.Patient = nil
	return p
}

func (StaffScope) CanViewStats() bool { return true }

// AdminScope has the same appointment rights as staff.
type AdminScope struct {
	StaffScope
}
