package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medireach/internal/auth"
	"medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/repository"
	"medireach/internal/scope"
	"medireach/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = testValidator{v: validator.New()}
	e.HTTPErrorHandler = HTTPErrorHandler
	return e
}

func newRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withCaller(c echo.Context, id uuid.UUID, role model.Role) {
	c.Set(auth.ContextKey, &jwt.Token{Claims: &auth.Claims{
		UserID: id.String(),
		Email:  string(role) + "@medireach.test",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: "token-" + id.String(),
		},
	}})
}

func withID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}

// serve runs h and renders a returned error the way the router would.
func serve(c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		HTTPErrorHandler(err, c)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// MockAppointmentService is a mock implementation of AppointmentService.
type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) List(ctx context.Context, caller scope.Caller, filters scope.Filters) ([]model.Appointment, error) {
	args := m.Called(ctx, caller, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Create(ctx context.Context, caller scope.Caller, in service.CreateAppointmentInput) (*model.Appointment, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Update(ctx context.Context, caller scope.Caller, id uuid.UUID, patch model.AppointmentPatch) (*model.Appointment, error) {
	args := m.Called(ctx, caller, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Delete(ctx context.Context, caller scope.Caller, id uuid.UUID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockAppointmentService) Stats(ctx context.Context, caller scope.Caller) (model.AppointmentStats, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(model.AppointmentStats), args.Error(1)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) Stats(ctx context.Context) (model.UserStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.UserStats), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, *model.User, error) {
	args := m.Called(ctx, email, password)
	var user *model.User
	if args.Get(2) != nil {
		user = args.Get(2).(*model.User)
	}
	return args.String(0), args.String(1), user, args.Error(3)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	args := m.Called(ctx, refreshToken, access)
	return args.Error(0)
}
