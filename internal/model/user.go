package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies what a user may see and change.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User represents a patient, staff member or administrator.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:'patient';index"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true;index"`
	Phone        string     `json:"phone,omitempty" gorm:"size:50"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Address      string     `json:"address,omitempty" gorm:"size:512"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Contact is the subset of a user a notifier needs to reach them.
type Contact struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

// Contact returns the user's reachable details.
func (u *User) Contact() Contact {
	return Contact{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// UserStats holds the admin dashboard counters for the user directory.
type UserStats struct {
	Total    int64 `json:"total"`
	Patients int64 `json:"patients"`
	Staff    int64 `json:"staff"`
	Admins   int64 `json:"admins"`
	Active   int64 `json:"active"`
}
