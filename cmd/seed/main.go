package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medireach/internal/config"
	"medireach/internal/db"
	"medireach/internal/model"
	"medireach/internal/repository"
)

// SeedUser is one account the seed command guarantees exists.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

func main() {
	var (
		adminEmail    string
		adminPassword string
		staffEmail    string
		staffPassword string
	)

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Create the initial admin and staff accounts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			users := []SeedUser{
				{Name: "Administrator", Email: adminEmail, Password: adminPassword, Role: model.RoleAdmin},
			}
			if staffEmail != "" {
				users = append(users, SeedUser{Name: "Front Desk", Email: staffEmail, Password: staffPassword, Role: model.RoleStaff})
			}
			return run(cmd.Context(), users)
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", envOr("SEED_ADMIN_EMAIL", "admin@medireach.local"), "Admin account email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Admin account password")
	cmd.Flags().StringVar(&staffEmail, "staff-email", os.Getenv("SEED_STAFF_EMAIL"), "Optional staff account email")
	cmd.Flags().StringVar(&staffPassword, "staff-password", os.Getenv("SEED_STAFF_PASSWORD"), "Staff account password")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, users []SeedUser) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	logger.Info().Msg("starting seed")

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		logger.Error().Err(err).Msg("failed to run migrations")
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	created, updated, err := seedUsers(ctx, repository.NewUserRepository(gormDB), users)
	if err != nil {
		logger.Error().Err(err).Msg("seed failed")
		return err
	}

	logger.Info().Int("created", created).Int("updated", updated).Msg("seed completed")
	return nil
}

// seedUsers creates missing accounts and brings existing ones to the wanted
// role. Passwords of existing accounts are left alone.
func seedUsers(ctx context.Context, repo repository.UserRepository, users []SeedUser) (created int, updated int, err error) {
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return created, updated, errors.New("seed user email is required")
		}

		existing, err := repo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("error checking user %s: %w", email, err)
		}

		if existing != nil && err == nil {
			if existing.Role == u.Role && existing.IsActive {
				continue
			}
			if err := repo.Update(ctx, existing.ID, map[string]interface{}{
				"role":      u.Role,
				"is_active": true,
			}); err != nil {
				return created, updated, fmt.Errorf("error updating user %s: %w", email, err)
			}
			updated++
			continue
		}

		if len(u.Password) < 6 {
			return created, updated, fmt.Errorf("password for %s must be at least 6 characters", email)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, updated, fmt.Errorf("hash password: %w", err)
		}
		if err := repo.Create(ctx, &model.User{
			Name:         u.Name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         u.Role,
			IsActive:     true,
		}); err != nil {
			return created, updated, fmt.Errorf("error creating user %s: %w", email, err)
		}
		created++
	}
	return created, updated, nil
}
