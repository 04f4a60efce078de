package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medireach/internal/calendar"
	"medireach/internal/model"
	"medireach/internal/report"
	"medireach/internal/scope"
	"medireach/internal/service"
)

// ReminderTrigger starts one reminder run on demand.
type ReminderTrigger interface {
	RunOnce(ctx context.Context) (service.RunReport, error)
}

// AppointmentHandler handles appointment endpoints.
type AppointmentHandler struct {
	svc       service.AppointmentService
	reminders ReminderTrigger
	cal       *calendar.Calendar
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(svc service.AppointmentService, reminders ReminderTrigger, cal *calendar.Calendar) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, reminders: reminders, cal: cal}
}

// CreateAppointmentRequest represents a booking request.
type CreateAppointmentRequest struct {
	Patient    *string `json:"patient" validate:"omitempty,uuid"`
	Doctor     string  `json:"doctor" validate:"required,max=255"`
	Department string  `json:"department" validate:"required"`
	Date       string  `json:"date" validate:"required"`
	Time       string  `json:"time" validate:"required,max=20"`
	Reason     string  `json:"reason" validate:"required,max=500"`
	Notes      string  `json:"notes" validate:"max=1000"`
	Status     *string `json:"status"`
}

// UpdateAppointmentRequest carries the fields to change. Omitted fields are
// left untouched. The patient reference is fixed at booking and a submitted
// one is ignored.
type UpdateAppointmentRequest struct {
	Doctor     *string `json:"doctor" validate:"omitempty,max=255"`
	Department *string `json:"department"`
	Date       *string `json:"date"`
	Time       *string `json:"time" validate:"omitempty,max=20"`
	Reason     *string `json:"reason" validate:"omitempty,max=500"`
	Notes      *string `json:"notes" validate:"omitempty,max=1000"`
	Status     *string `json:"status"`
}

// dropUnwritable clears the fields a patient may not submit on a booking.
func (r *CreateAppointmentRequest) dropUnwritable(role model.Role) {
	if role == model.RolePatient {
		r.Patient = nil
		r.Status = nil
	}
}

// dropUnwritable clears the fields a patient may not change. Patients keep
// date, time, reason and notes.
func (r *UpdateAppointmentRequest) dropUnwritable(role model.Role) {
	if role == model.RolePatient {
		r.Doctor = nil
		r.Department = nil
		r.Status = nil
	}
}

func (h *AppointmentHandler) parseDate(s string) (time.Time, error) {
	d, err := h.cal.ParseDate(s)
	if err != nil {
		return time.Time{}, badRequest("invalid date", "VALIDATION_ERROR")
	}
	return d, nil
}

func (r CreateAppointmentRequest) input(date time.Time) (service.CreateAppointmentInput, error) {
	in := service.CreateAppointmentInput{
		Doctor:     r.Doctor,
		Department: model.Department(r.Department),
		Date:       date,
		Time:       r.Time,
		Reason:     r.Reason,
		Notes:      r.Notes,
	}
	if r.Patient != nil {
		id, err := uuid.Parse(*r.Patient)
		if err != nil {
			return in, badRequest("invalid patient id", "INVALID_UUID")
		}
		in.Patient = &id
	}
	if r.Status != nil {
		status := model.AppointmentStatus(*r.Status)
		in.Status = &status
	}
	return in, nil
}

func (h *AppointmentHandler) patch(r UpdateAppointmentRequest) (model.AppointmentPatch, error) {
	p := model.AppointmentPatch{
		Doctor: r.Doctor,
		Time:   r.Time,
		Reason: r.Reason,
		Notes:  r.Notes,
	}
	if r.Department != nil {
		d := model.Department(*r.Department)
		p.Department = &d
	}
	if r.Date != nil {
		d, err := h.parseDate(*r.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if r.Status != nil {
		s := model.AppointmentStatus(*r.Status)
		p.Status = &s
	}
	return p, nil
}

// List godoc
// @Summary List appointments visible to the caller
// @Description Patients see their own appointments; staff and admins see all.
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointments [get]
func (h *AppointmentHandler) List(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), who, scope.Filters{
		Status: c.QueryParam("status"),
		Date:   c.QueryParam("date"),
	})
	if err != nil {
		return respondError(err)
	}
	if items == nil {
		items = []model.Appointment{}
	}
	return respondList(c, len(items), items)
}

// Get godoc
// @Summary Get appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	appointment, err := h.svc.Get(c.Request().Context(), who, id)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, appointment)
}

// Create godoc
// @Summary Book an appointment
// @Description Patients always book for themselves; staff and admins must name the patient.
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAppointmentRequest true "Appointment"
// @Success 201 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req CreateAppointmentRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	req.dropUnwritable(who.Role)
	if err := validate(c, &req); err != nil {
		return err
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		return err
	}
	in, err := req.input(date)
	if err != nil {
		return err
	}

	created, err := h.svc.Create(c.Request().Context(), who, in)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusCreated, created)
}

// Update godoc
// @Summary Update an appointment
// @Description Patients may change date, time, reason and notes only.
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param request body UpdateAppointmentRequest true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) Update(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req UpdateAppointmentRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	req.dropUnwritable(who.Role)
	if err := validate(c, &req); err != nil {
		return err
	}
	p, err := h.patch(req)
	if err != nil {
		return err
	}

	updated, err := h.svc.Update(c.Request().Context(), who, id, p)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete an appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), who, id); err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, struct{}{})
}

// Stats godoc
// @Summary Appointment dashboard counters
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /appointments/stats/dashboard [get]
func (h *AppointmentHandler) Stats(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), who)
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, stats)
}

// Export godoc
// @Summary Download appointments as XLSX
// @Tags appointments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /appointments/export [get]
func (h *AppointmentHandler) Export(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), who, scope.Filters{
		Status: c.QueryParam("status"),
		Date:   c.QueryParam("date"),
	})
	if err != nil {
		return respondError(err)
	}

	data, err := report.AppointmentsXLSX(items, h.cal.Location())
	if err != nil {
		return respondError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", report.ExportFilename(h.cal.Now())))
	return c.Blob(http.StatusOK, report.XLSXContentType, data)
}

// RunReminders godoc
// @Summary Run the reminder job now
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /appointments/reminders/run [post]
func (h *AppointmentHandler) RunReminders(c echo.Context) error {
	result, err := h.reminders.RunOnce(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return respondData(c, http.StatusOK, result)
}
