package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"medireach/internal/auth"
	"medireach/internal/cache"
	"medireach/internal/calendar"
	"medireach/internal/config"
	"medireach/internal/db"
	"medireach/internal/handler"
	"medireach/internal/middleware"
	"medireach/internal/notify"
	"medireach/internal/repository"
	"medireach/internal/router"
	"medireach/internal/scheduler"
	"medireach/internal/service"
)

// @title MediReach API
// @version 1.0
// @description Healthcare appointment booking with role-scoped access and daily reminders.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	rootCmd := &cobra.Command{
		Use:          "medireach",
		Short:        "MediReach appointment API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send tomorrow's reminders once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReminders(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			return runMigrate(reset)
		},
	}
	cmd.Flags().Bool("reset", false, "Drop all tables before migrating")
	return cmd
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return logger
}

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	cache     *cache.Client
	cal       *calendar.Calendar
	tokens    *auth.TokenStore
	users     service.UserService
	auth      service.AuthService
	appts     service.AppointmentService
	scheduler *scheduler.Scheduler
}

func (a *app) close(logger zerolog.Logger) {
	if err := a.cache.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing redis")
	}
	if err := db.Close(a.db); err != nil {
		logger.Warn().Err(err).Msg("closing database")
	}
}

func buildNotifier(cfg *config.Config, logger zerolog.Logger) notify.Notifier {
	var notifiers []notify.Notifier
	for _, ch := range cfg.NotifyChannels {
		switch ch {
		case config.ChannelEmail:
			notifiers = append(notifiers, notify.NewEmailNotifier(notify.NewGomailSender(cfg.SMTP)))
		case config.ChannelWebhook:
			notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Webhook))
		case config.ChannelLog:
			notifiers = append(notifiers, notify.NewLogNotifier(logger))
		}
	}
	if len(notifiers) == 0 {
		notifiers = append(notifiers, notify.NewLogNotifier(logger))
	}
	return notify.NewMulti(logger, notifiers...)
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		_ = db.Close(gormDB)
		return nil, err
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	cal := calendar.New(loc)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	appointmentRepo := repository.NewAppointmentRepository(gormDB)
	reminderLogRepo := repository.NewReminderLogRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	notifier := buildNotifier(cfg, logger)
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	appointmentService := service.NewAppointmentService(appointmentRepo, userService, notifier, cal, logger)
	reminderService := service.NewReminderService(appointmentRepo, reminderLogRepo, notifier, cal, logger)

	sched, err := scheduler.New(cfg.Reminder, reminderService, cacheClient, logger)
	if err != nil {
		_ = cacheClient.Close()
		_ = db.Close(gormDB)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		db:        gormDB,
		cache:     cacheClient,
		cal:       cal,
		tokens:    tokenStore,
		users:     userService,
		auth:      authService,
		appts:     appointmentService,
		scheduler: sched,
	}, nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.IsDev() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.close(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)

	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, logger, a.tokens, limiter, router.Handlers{
		Auth:         handler.NewAuthHandler(a.auth, a.users),
		Users:        handler.NewUserHandler(a.users),
		Appointments: handler.NewAppointmentHandler(a.appts, a.scheduler, a.cal),
		Health: handler.NewHealthHandler(map[string]handler.PingFunc{
			"database": sqlDB.PingContext,
		}),
	})

	a.scheduler.Start()

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("reminder run still in flight at shutdown")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runReminders(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.close(logger)

	if ctx == nil {
		ctx = context.Background()
	}
	report, err := a.scheduler.RunOnce(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("reminder run failed")
		return err
	}
	logger.Info().
		Int("candidates", report.Candidates).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("reminder run finished")
	return nil
}

func runMigrate(reset bool) error {
	logger := newLogger()

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

	if reset {
		logger.Warn().Msg("dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error().Err(err).Msg("migration failed")
		return err
	}
	logger.Info().Msg("migrations applied")
	return nil
}
