package repository

import (
	"context"

	"gorm.io/gorm"

	"medireach/internal/model"
)

// ReminderLogRepository defines reminder log persistence operations.
type ReminderLogRepository interface {
	Create(ctx context.Context, log *model.ReminderLog) error
	CreateBatch(ctx context.Context, logs []model.ReminderLog) error
}

type reminderLogRepository struct {
	db *gorm.DB
}

// NewReminderLogRepository creates a new reminder log repository.
func NewReminderLogRepository(db *gorm.DB) ReminderLogRepository {
	return &reminderLogRepository{db: db}
}

// Create creates a new reminder log entry.
func (r *reminderLogRepository) Create(ctx context.Context, log *model.ReminderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple reminder log entries in batches of 100.
func (r *reminderLogRepository) CreateBatch(ctx context.Context, logs []model.ReminderLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}
