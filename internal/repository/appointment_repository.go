package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medireach/internal/model"
	"medireach/internal/scope"
)

// AppointmentRepository defines appointment persistence operations.
type AppointmentRepository interface {
	Find(ctx context.Context, q scope.Query) ([]model.Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Create(ctx context.Context, appointment *model.Appointment) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountBuckets(ctx context.Context, today time.Time) (model.AppointmentStats, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

var (
	dateColumn = clause.Column{Name: "date"}
	timeColumn = clause.Column{Name: "time"}
)

// applyQuery translates a scope.Query into WHERE conditions.
func applyQuery(tx *gorm.DB, q scope.Query) *gorm.DB {
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if q.DateFrom != nil {
		tx = tx.Where(clause.Gte{Column: dateColumn, Value: *q.DateFrom})
	}
	if q.DateTo != nil {
		tx = tx.Where(clause.Lte{Column: dateColumn, Value: *q.DateTo})
	}
	if q.ReminderSent != nil {
		tx = tx.Where("reminder_sent = ?", *q.ReminderSent)
	}
	return tx
}

// Find returns appointments matching q ordered by date then time, with the
// patient populated.
func (r *appointmentRepository) Find(ctx context.Context, q scope.Query) ([]model.Appointment, error) {
	var items []model.Appointment
	err := applyQuery(r.db.WithContext(ctx).Model(&model.Appointment{}), q).
		Preload("Patient").
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: dateColumn},
			{Column: timeColumn},
		}}).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID loads one appointment with patient, creator and last updater.
func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("CreatedBy").
		Preload("UpdatedBy").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(appointment).Error
}

// Update applies fields to one appointment.
func (r *appointmentRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Appointment{}).Where("id = ?", id).Updates(fields).Error
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Appointment{}).Error
}

// CountBuckets computes the dashboard counters in one aggregate query.
// today is the start of the current day in the service calendar.
func (r *appointmentRepository) CountBuckets(ctx context.Context, today time.Time) (model.AppointmentStats, error) {
	var stats model.AppointmentStats
	err := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS scheduled, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS confirmed, "+
				"COALESCE(SUM(CASE WHEN date >= ? THEN 1 ELSE 0 END), 0) AS today, "+
				"COALESCE(SUM(CASE WHEN date > ? AND status IN ? THEN 1 ELSE 0 END), 0) AS upcoming",
			model.StatusScheduled, model.StatusConfirmed, today, today, model.ActiveStatuses,
		).
		Scan(&stats).Error
	if err != nil {
		return model.AppointmentStats{}, err
	}
	return stats, nil
}

// MarkReminderSent flips reminder_sent for id only if it is still false.
// It reports whether this call performed the transition.
func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		Updates(map[string]interface{}{
			"reminder_sent":    true,
			"reminder_sent_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
