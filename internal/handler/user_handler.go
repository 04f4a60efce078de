package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"medireach/internal/calendar"
	"medireach/internal/model"
	"medireach/internal/repository"
	"medireach/internal/service"
)

// UserHandler bundles the user directory endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest carries an admin edit. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Role        *string `json:"role" validate:"omitempty,oneof=patient staff admin"`
	IsActive    *bool   `json:"isActive"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" validate:"omitempty,max=512"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "patient, staff or admin"
// @Param isActive query bool false "Active flag"
// @Success 200 {object} ListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	var filter repository.UserFilter
	if role := c.QueryParam("role"); role != "" {
		r := model.Role(role)
		filter.Role = &r
	}
	if active := c.QueryParam("isActive"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			return badRequest("isActive must be true or false", "VALIDATION_ERROR")
		}
		filter.IsActive = &v
	}

	users, err := h.svc.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return respondError(err)
	}
	if users == nil {
		users = []model.User{}
	}
	return respondList(c, len(users), users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		IsActive: req.IsActive,
		Phone:    req.Phone,
		Address:  req.Address,
	}
	if req.Role != nil {
		r := model.Role(*req.Role)
		in.Role = &r
	}
	if req.DateOfBirth != nil {
		dob, err := calendar.New(time.UTC).ParseDate(*req.DateOfBirth)
		if err != nil {
			return badRequest("invalid dateOfBirth", "VALIDATION_ERROR")
		}
		in.DateOfBirth = &dob
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, in)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, struct{}{})
}

// Stats godoc
// @Summary User dashboard counters
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/stats/dashboard [get]
func (h *UserHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, stats)
}
