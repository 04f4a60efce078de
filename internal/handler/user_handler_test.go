package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/repository"
	"medireach/internal/service"
)

func TestUserHandler_ListUsers(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	role := model.RolePatient
	active := true
	users := []model.User{{ID: uuid.New(), Name: "Amina", Role: model.RolePatient, IsActive: true}}
	svc.On("ListUsers", mock.Anything, repository.UserFilter{Role: &role, IsActive: &active}).Return(users, nil)

	c, rec := newRequest(newEcho(), http.MethodGet, "/api/users?role=patient&isActive=true", "")
	withCaller(c, uuid.New(), model.RoleStaff)
	serve(c, h.ListUsers)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, 1, env.Count)
	assert.NotContains(t, string(env.Data), "password")
	svc.AssertExpectations(t)
}

func TestUserHandler_ListUsers_BadActiveFlag(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)

	c, rec := newRequest(newEcho(), http.MethodGet, "/api/users?isActive=maybe", "")
	serve(c, h.ListUsers)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestUserHandler_ListUsers_InvalidRole(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	svc.On("ListUsers", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidRole)

	c, rec := newRequest(newEcho(), http.MethodGet, "/api/users?role=doctor", "")
	serve(c, h.ListUsers)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	id := uuid.New()
	svc.On("GetUser", mock.Anything, id).Return(nil, apperrors.ErrUserNotFound)

	c, rec := newRequest(newEcho(), http.MethodGet, "/api/users/"+id.String(), "")
	withID(c, id.String())
	serve(c, h.GetUser)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeError(t, rec).Code)
}

func TestUserHandler_UpdateUser(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	id := uuid.New()
	updated := &model.User{ID: id, Name: "Amina", Role: model.RoleStaff, IsActive: true}

	svc.On("UpdateUser", mock.Anything, id, mock.MatchedBy(func(in service.UpdateUserInput) bool {
		return in.Role != nil && *in.Role == model.RoleStaff &&
			in.DateOfBirth != nil && in.DateOfBirth.Equal(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)) &&
			in.Name == nil && in.Email == nil
	})).Return(updated, nil)

	c, rec := newRequest(newEcho(), http.MethodPut, "/api/users/"+id.String(),
		`{"role":"staff","dateOfBirth":"1990-05-17"}`)
	withID(c, id.String())
	serve(c, h.UpdateUser)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"role":"staff"`)
	svc.AssertExpectations(t)
}

func TestUserHandler_UpdateUser_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
	}{
		{"unknown role", `{"role":"doctor"}`, nil, http.StatusBadRequest},
		{"bad email", `{"email":"not-an-email"}`, nil, http.StatusBadRequest},
		{"email taken", `{"email":"taken@example.com"}`, apperrors.ErrEmailTaken, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			h := NewUserHandler(svc)
			id := uuid.New()
			if tt.svcErr != nil {
				svc.On("UpdateUser", mock.Anything, id, mock.Anything).Return(nil, tt.svcErr)
			}

			c, rec := newRequest(newEcho(), http.MethodPut, "/api/users/"+id.String(), tt.body)
			withID(c, id.String())
			serve(c, h.UpdateUser)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestUserHandler_DeleteUser(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	id := uuid.New()
	svc.On("DeleteUser", mock.Anything, id).Return(nil)

	c, rec := newRequest(newEcho(), http.MethodDelete, "/api/users/"+id.String(), "")
	withID(c, id.String())
	serve(c, h.DeleteUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, string(decodeEnvelope(t, rec).Data))
}

func TestUserHandler_Stats(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	svc.On("Stats", mock.Anything).Return(model.UserStats{Total: 4, Patients: 2, Staff: 1, Admins: 1, Active: 3}, nil)

	c, rec := newRequest(newEcho(), http.MethodGet, "/api/users/stats/dashboard", "")
	serve(c, h.Stats)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":4,"patients":2,"staff":1,"admins":1,"active":3}`, string(decodeEnvelope(t, rec).Data))
}
