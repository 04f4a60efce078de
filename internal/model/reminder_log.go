package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderStatus is the outcome of one reminder dispatch attempt.
type ReminderStatus string

const (
	ReminderStatusSent   ReminderStatus = "sent"
	ReminderStatusFailed ReminderStatus = "failed"
)

// ReminderLog represents one reminder dispatch attempt.
// Every attempt is logged regardless of success or failure.
type ReminderLog struct {
	ID            uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	AppointmentID uuid.UUID      `json:"appointmentId" gorm:"type:char(36);not null;index"`
	Status        ReminderStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Channel       string         `json:"channel" gorm:"size:50"`
	ErrorMessage  string         `json:"errorMessage,omitempty" gorm:"type:text"`
	AttemptedAt   time.Time      `json:"attemptedAt" gorm:"not null;index"`
}

// BeforeCreate sets UUID before creating the record.
func (l *ReminderLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
