package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medireach/internal/auth"
	"medireach/internal/errors"
	"medireach/internal/scope"
)

// ListResponse is the envelope for collection endpoints.
type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

// DataResponse is the envelope for single-item endpoints.
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respondList(c echo.Context, count int, data interface{}) error {
	return c.JSON(http.StatusOK, ListResponse{Success: true, Count: count, Data: data})
}

func respondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, DataResponse{Success: true, Data: data})
}

// respondError converts a domain error into the HTTP error body.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := decode(c, req); err != nil {
		return err
	}
	return validate(c, req)
}

func decode(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	return nil
}

func validate(c echo.Context, req interface{}) error {
	if err := c.Validate(req); err != nil {
		return badRequest(validationMessage(req, err), "VALIDATION_ERROR")
	}
	return nil
}

// validationMessage reports failed fields by their JSON names.
func validationMessage(req interface{}, err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, jsonName(req, fe.StructField())+" "+describeRule(fe))
	}
	return strings.Join(msgs, "; ")
}

func jsonName(req interface{}, field string) string {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(field); ok {
			if name := strings.Split(f.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func paramID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id", "INVALID_UUID")
	}
	return id, nil
}

// caller resolves the authenticated identity or fails with 401.
func caller(c echo.Context) (scope.Caller, error) {
	who, err := auth.CallerFromContext(c)
	if err != nil {
		return scope.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "UNAUTHENTICATED",
		})
	}
	return who, nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPErrorHandler renders every error as errors.ErrorResponse.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   errors.ErrorResponse
		he     *echo.HTTPError
	)
	if stderrors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case errors.ErrorResponse:
			body = msg
		case string:
			body = errors.ErrorResponse{Error: msg, Code: codeForStatus(status)}
		default:
			body = errors.ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
		}
		if status >= http.StatusInternalServerError {
			body = errors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
		}
	} else {
		mapped := errors.MapErrorToHTTP(err)
		status, body = mapped.StatusCode, mapped.ToErrorResponse()
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
