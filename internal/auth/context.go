package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/scope"
)

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

// ErrMissingToken is returned when a handler runs without a parsed token.
var ErrMissingToken = errors.New("missing or invalid token")

// NewClaims makes echo-jwt parse tokens into *Claims.
func NewClaims(echo.Context) jwt.Claims {
	return new(Claims)
}

// ClaimsFromContext returns the claims echo-jwt placed on c.
func ClaimsFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrMissingToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrMissingToken
	}
	return claims, nil
}

// CallerFromContext resolves the authenticated caller behind c.
func CallerFromContext(c echo.Context) (scope.Caller, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return scope.Caller{}, err
	}
	id, err := claims.ParseUserID()
	if err != nil {
		return scope.Caller{}, ErrMissingToken
	}
	return scope.Caller{ID: id, Role: claims.Role}, nil
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: err.Error(),
					Code:  "UNAUTHENTICATED",
				})
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrRoleForbidden)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
	}
}

// RejectRevoked blocks access tokens that were blacklisted on logout.
func RejectRevoked(store TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromContext(c)
			if err != nil || claims.ID == "" {
				return next(c)
			}
			// Fails open when redis is unreachable; expiry still bounds the token.
			revoked, _ := store.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "token has been revoked",
					Code:  "TOKEN_REVOKED",
				})
			}
			return next(c)
		}
	}
}

// RemainingTTL is how long the token in claims stays valid.
func RemainingTTL(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 0 {
		return 0
	}
	return ttl
}
