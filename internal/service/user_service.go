package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medireach/internal/cache"
	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UpdateUserInput carries an admin edit. Nil fields are left untouched.
type UpdateUserInput struct {
	Name        *string
	Email       *string
	Role        *model.Role
	IsActive    *bool
	Phone       *string
	DateOfBirth *time.Time
	Address     *string
}

// UserService exposes the identity directory.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (model.UserStats, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Dependency("find user", err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		return true, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Dependency("list users", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		other, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return nil, apperrors.ErrEmailTaken
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.Dependency("check email", err)
		}
		fields["email"] = email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.ErrInvalidRole
		}
		fields["role"] = *in.Role
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.DateOfBirth != nil {
		fields["date_of_birth"] = *in.DateOfBirth
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, apperrors.Dependency("update user", err)
		}
		_ = s.cache.Delete(ctx, s.cacheKey(id))
	}
	return s.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Dependency("delete user", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

func (s *userService) Stats(ctx context.Context) (model.UserStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return model.UserStats{}, apperrors.Dependency("count users", err)
	}
	return stats, nil
}
