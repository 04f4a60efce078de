package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medireach/internal/model"
)

// UserFilter narrows a user listing. Nil fields do not constrain.
type UserFilter struct {
	Role     *model.Role
	IsActive *bool
}

// UserRepository defines persistence operations for the identity directory.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (model.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with id is present.
func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns users matching filter, newest first.
func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	tx := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != nil {
		tx = tx.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		tx = tx.Where("is_active = ?", *filter.IsActive)
	}

	var users []model.User
	if err := tx.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{}).Error
}

// Stats counts users per role and the active ones in a single query.
func (r *userRepository) Stats(ctx context.Context) (model.UserStats, error) {
	var stats model.UserStats
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS patients, "+
				"COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS staff, "+
				"COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS admins, "+
				"COALESCE(SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END), 0) AS active",
			model.RolePatient, model.RoleStaff, model.RoleAdmin, true,
		).
		Scan(&stats).Error
	if err != nil {
		return model.UserStats{}, err
	}
	return stats, nil
}
