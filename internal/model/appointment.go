package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no-show"
)

// ActiveStatuses are the statuses that still expect the patient to show up.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether s is scheduled or confirmed.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Department is the clinical department an appointment is booked with.
type Department string

// Departments is the closed set of bookable departments.
var Departments = []Department{
	"General Practice",
	"Pediatrics",
	"Cardiology",
	"Dermatology",
	"Orthopedics",
	"Neurology",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
	"Other",
}

// Valid reports whether d belongs to Departments.
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// Appointment is a booked visit for one patient.
type Appointment struct {
	ID             uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	PatientID      uuid.UUID         `json:"patientId" gorm:"type:char(36);not null;index:idx_appointments_patient_date,priority:1"`
	Doctor         string            `json:"doctor" gorm:"size:255;not null"`
	Department     Department        `json:"department" gorm:"type:varchar(50);not null"`
	Date           time.Time         `json:"date" gorm:"column:date;not null;index:idx_appointments_patient_date,priority:2;index:idx_appointments_status_date,priority:2"`
	Time           string            `json:"time" gorm:"column:time;size:20;not null"`
	Reason         string            `json:"reason" gorm:"type:text;not null"`
	Notes          string            `json:"notes,omitempty" gorm:"type:text"`
	Status         AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'scheduled';index:idx_appointments_status_date,priority:1"`
	ReminderSent   bool              `json:"reminderSent" gorm:"not null;default:false;index"`
	ReminderSentAt *time.Time        `json:"reminderSentAt,omitempty"`
	CreatedByID    uuid.UUID         `json:"createdById" gorm:"type:char(36);not null"`
	UpdatedByID    *uuid.UUID        `json:"updatedById,omitempty" gorm:"type:char(36)"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`

	// Relations
	Patient   *User `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	CreatedBy *User `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	UpdatedBy *User `json:"updatedBy,omitempty" gorm:"foreignKey:UpdatedByID"`
}

// BeforeCreate sets UUID and default status before creating the record.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	return nil
}

// AppointmentPatch carries the fields a caller submitted for an update.
// Nil means "not submitted".
type AppointmentPatch struct {
	Patient    *uuid.UUID
	Doctor     *string
	Department *Department
	Date       *time.Time
	Time       *string
	Reason     *string
	Notes      *string
	Status     *AppointmentStatus
}

// Empty reports whether no field was submitted.
func (p AppointmentPatch) Empty() bool {
	return p.Patient == nil && p.Doctor == nil && p.Department == nil && p.Date == nil &&
		p.Time == nil && p.Reason == nil && p.Notes == nil && p.Status == nil
}

// Columns returns the submitted fields keyed by column name. The patient
// reference is never included.
func (p AppointmentPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Doctor != nil {
		cols["doctor"] = *p.Doctor
	}
	if p.Department != nil {
		cols["department"] = *p.Department
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.Time != nil {
		cols["time"] = *p.Time
	}
	if p.Reason != nil {
		cols["reason"] = strings.TrimSpace(*p.Reason)
	}
	if p.Notes != nil {
		cols["notes"] = strings.TrimSpace(*p.Notes)
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}

// AppointmentStats holds the staff dashboard counters.
type AppointmentStats struct {
	Total     int64 `json:"total"`
	Scheduled int64 `json:"scheduled"`
	Confirmed int64 `json:"confirmed"`
	Today     int64 `json:"today"`
	Upcoming  int64 `json:"upcoming"`
}
