package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"medireach/docs"
	"medireach/internal/auth"
	"medireach/internal/config"
	"medireach/internal/errors"
	"medireach/internal/handler"
	"medireach/internal/middleware"
	"medireach/internal/model"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Appointments *handler.AppointmentHandler
	Health       *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger zerolog.Logger,
	tokens auth.TokenStoreInterface,
	limiter *middleware.RateLimiter,
	h Handlers,
) {
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", h.Health.Live)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}

	// Public routes
	api.GET("/health", h.Health.Health)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(cfg.JWTSecret),
		SigningMethod: "HS256",
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: auth.NewClaims,
		ContextKey:    auth.ContextKey,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid token",
				Code:  "UNAUTHENTICATED",
			})
		},
	}), auth.RejectRevoked(tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	staffOnly := auth.RequireRole(model.RoleStaff, model.RoleAdmin)
	adminOnly := auth.RequireRole(model.RoleAdmin)

	// Appointment routes; row-level scoping happens in the service.
	appointments := secured.Group("/appointments")
	appointments.GET("/stats/dashboard", h.Appointments.Stats, staffOnly)
	appointments.GET("/export", h.Appointments.Export, staffOnly)
	appointments.POST("/reminders/run", h.Appointments.RunReminders, adminOnly)
	appointments.GET("", h.Appointments.List)
	appointments.POST("", h.Appointments.Create)
	appointments.GET("/:id", h.Appointments.Get)
	appointments.PUT("/:id", h.Appointments.Update)
	appointments.DELETE("/:id", h.Appointments.Delete)

	// User directory routes
	users := secured.Group("/users", staffOnly)
	users.GET("/stats/dashboard", h.Users.Stats, adminOnly)
	users.GET("", h.Users.ListUsers)
	users.GET("/:id", h.Users.GetUser)
	users.PUT("/:id", h.Users.UpdateUser, adminOnly)
	users.DELETE("/:id", h.Users.DeleteUser, adminOnly)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator used by every handler.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
