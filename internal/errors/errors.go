package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every domain error wraps exactly one of them so callers can
// branch with errors.Is without knowing the specific error.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrDependency   = errors.New("dependency failure")
)

var (
	// ErrAppointmentNotFound is returned when an appointment id does not resolve.
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	// ErrPatientNotFound is returned when a booking references an unknown patient.
	ErrPatientNotFound = fmt.Errorf("patient %w", ErrNotFound)
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrNotAuthorized is returned when the record exists but is outside the caller's scope.
	ErrNotAuthorized = fmt.Errorf("%w to access this appointment", ErrUnauthorized)
	// ErrRoleForbidden is returned when the caller's role may not use the operation at all.
	ErrRoleForbidden = fmt.Errorf("role %w for this operation", ErrUnauthorized)
	// ErrPatientIDRequired is returned when staff book without naming a patient.
	ErrPatientIDRequired = fmt.Errorf("%w: patient id required", ErrValidation)
	// ErrInvalidStatus is returned for unknown appointment statuses.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrValidation)
	// ErrInvalidDepartment is returned for departments outside the closed set.
	ErrInvalidDepartment = fmt.Errorf("%w: invalid department", ErrValidation)
	// ErrInvalidDate is returned when a date cannot be parsed.
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)
	// ErrInvalidRole is returned for unknown user roles.
	ErrInvalidRole = fmt.Errorf("%w: invalid role", ErrValidation)
	// ErrEmailTaken is returned when an email already belongs to another user.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", ErrConflict)
)

// Validation builds a validation error with a field-specific message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Dependency wraps a store or notifier failure.
func Dependency(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Absent records are 404,
// records outside the caller's scope are 403, dependency failures are a
// generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return NewHTTPError(http.StatusNotFound, "appointment not found", "APPOINTMENT_NOT_FOUND")
	case errors.Is(err, ErrPatientNotFound):
		return NewHTTPError(http.StatusNotFound, "patient not found", "PATIENT_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, "user not found", "USER_NOT_FOUND")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrRoleForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN_ROLE")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_AUTHORIZED")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
