package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medireach/internal/calendar"
	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/notify"
	"medireach/internal/repository"
	"medireach/internal/scope"
)

// UserDirectory is the part of the identity directory bookings depend on.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// CreateAppointmentInput carries a booking request. Patient is only honoured
// for staff and admins; Status only for staff and admins.
type CreateAppointmentInput struct {
	Patient    *uuid.UUID
	Doctor     string
	Department model.Department
	Date       time.Time
	Time       string
	Reason     string
	Notes      string
	Status     *model.AppointmentStatus
}

// AppointmentService is the role-scoped appointment API.
type AppointmentService interface {
	List(ctx context.Context, caller scope.Caller, filters scope.Filters) ([]model.Appointment, error)
	Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*model.Appointment, error)
	Create(ctx context.Context, caller scope.Caller, in CreateAppointmentInput) (*model.Appointment, error)
	Update(ctx context.Context, caller scope.Caller, id uuid.UUID, patch model.AppointmentPatch) (*model.Appointment, error)
	Delete(ctx context.Context, caller scope.Caller, id uuid.UUID) error
	Stats(ctx context.Context, caller scope.Caller) (model.AppointmentStats, error)
}

type appointmentService struct {
	repo     repository.AppointmentRepository
	users    UserDirectory
	notifier notify.Notifier
	cal      *calendar.Calendar
	logger   zerolog.Logger
}

// NewAppointmentService creates a new appointment service.
func NewAppointmentService(
	repo repository.AppointmentRepository,
	users UserDirectory,
	notifier notify.Notifier,
	cal *calendar.Calendar,
	logger zerolog.Logger,
) AppointmentService {
	return &appointmentService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		cal:      cal,
		logger:   logger.With().Str("component", "appointments").Logger(),
	}
}

// List returns the caller's visible appointments filtered by status and day.
func (s *appointmentService) List(ctx context.Context, caller scope.Caller, filters scope.Filters) ([]model.Appointment, error) {
	policy, err := scope.For(caller)
	if err != nil {
		return nil, err
	}
	q, err := scope.Build(policy, filters, s.cal)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, apperrors.Dependency("find appointments", err)
	}
	return items, nil
}

// load resolves id and checks it against the caller's policy. An absent
// record is NotFound; a record outside scope is an authorization failure.
func (s *appointmentService) load(ctx context.Context, policy scope.Policy, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		return nil, apperrors.Dependency("find appointment", err)
	}
	if !policy.CanAccess(appointment) {
		return nil, apperrors.ErrNotAuthorized
	}
	return appointment, nil
}

func (s *appointmentService) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*model.Appointment, error) {
	policy, err := scope.For(caller)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, policy, id)
}

func (s *appointmentService) Create(ctx context.Context, caller scope.Caller, in CreateAppointmentInput) (*model.Appointment, error) {
	policy, err := scope.For(caller)
	if err != nil {
		return nil, err
	}

	patientID, err := policy.PatientForCreate(in.Patient)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}

	status := model.StatusScheduled
	if requested := policy.RestrictPatch(model.AppointmentPatch{Status: in.Status}).Status; requested != nil {
		if !requested.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		status = *requested
	}

	appointment := &model.Appointment{
		PatientID:   patientID,
		Doctor:      strings.TrimSpace(in.Doctor),
		Department:  in.Department,
		Date:        in.Date,
		Time:        strings.TrimSpace(in.Time),
		Reason:      strings.TrimSpace(in.Reason),
		Notes:       strings.TrimSpace(in.Notes),
		Status:      status,
		CreatedByID: caller.ID,
	}
	if err := validateAppointment(appointment); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, apperrors.Dependency("create appointment", err)
	}

	created, err := s.repo.FindByID(ctx, appointment.ID)
	if err != nil {
		return nil, apperrors.Dependency("reload appointment", err)
	}

	s.notifyBestEffort(ctx, notify.KindConfirmation, created)
	return created, nil
}

// checkPatient requires the booking's patient to be an active directory
// entry. A patient caller's own id is checked too, since a token can outlive
// its account.
func (s *appointmentService) checkPatient(ctx context.Context, patientID uuid.UUID) error {
	patient, err := s.users.GetUser(ctx, patientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrPatientNotFound
		}
		return err
	}
	if !patient.IsActive {
		return apperrors.ErrPatientNotFound
	}
	return nil
}

func (s *appointmentService) Update(ctx context.Context, caller scope.Caller, id uuid.UUID, patch model.AppointmentPatch) (*model.Appointment, error) {
	policy, err := scope.For(caller)
	if err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, policy, id)
	if err != nil {
		return nil, err
	}

	allowed := policy.RestrictPatch(patch)
	if err := validatePatch(allowed); err != nil {
		return nil, err
	}

	fields := allowed.Columns()
	fields["updated_by_id"] = caller.ID
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, apperrors.Dependency("update appointment", err)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Dependency("reload appointment", err)
	}

	if existing.Status != model.StatusCancelled && updated.Status == model.StatusCancelled {
		s.notifyBestEffort(ctx, notify.KindCancellation, updated)
	}
	return updated, nil
}

func (s *appointmentService) Delete(ctx context.Context, caller scope.Caller, id uuid.UUID) error {
	policy, err := scope.For(caller)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, policy, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Dependency("delete appointment", err)
	}
	return nil
}

// Stats returns the dashboard counters. "today" is fixed once per call in the
// service calendar.
func (s *appointmentService) Stats(ctx context.Context, caller scope.Caller) (model.AppointmentStats, error) {
	policy, err := scope.For(caller)
	if err != nil {
		return model.AppointmentStats{}, err
	}
	if !policy.CanViewStats() {
		return model.AppointmentStats{}, apperrors.ErrRoleForbidden
	}
	stats, err := s.repo.CountBuckets(ctx, s.cal.Today())
	if err != nil {
		return model.AppointmentStats{}, apperrors.Dependency("count appointments", err)
	}
	return stats, nil
}

// notifyBestEffort sends a booking message; failures are logged only.
func (s *appointmentService) notifyBestEffort(ctx context.Context, kind notify.Kind, a *model.Appointment) {
	if s.notifier == nil {
		return
	}
	log := s.logger.With().Str("appointment_id", a.ID.String()).Str("kind", string(kind)).Logger()
	if a.Patient == nil {
		log.Warn().Msg("notification skipped: patient not loaded")
		return
	}

	var err error
	switch kind {
	case notify.KindConfirmation:
		err = s.notifier.SendConfirmation(ctx, a, a.Patient.Contact())
	case notify.KindCancellation:
		err = s.notifier.SendCancellation(ctx, a, a.Patient.Contact())
	}
	if err != nil {
		log.Warn().Err(err).Msg("notification failed")
		return
	}
	log.Debug().Msg("notification sent")
}

func validateAppointment(a *model.Appointment) error {
	switch {
	case a.Doctor == "":
		return apperrors.Validation("doctor is required")
	case !a.Department.Valid():
		return apperrors.ErrInvalidDepartment
	case a.Date.IsZero():
		return apperrors.Validation("date is required")
	case a.Time == "":
		return apperrors.Validation("time is required")
	case a.Reason == "":
		return apperrors.Validation("reason is required")
	}
	return nil
}

func validatePatch(p model.AppointmentPatch) error {
	if p.Doctor != nil && strings.TrimSpace(*p.Doctor) == "" {
		return apperrors.Validation("doctor cannot be empty")
	}
	if p.Department != nil && !p.Department.Valid() {
		return apperrors.ErrInvalidDepartment
	}
	if p.Date != nil && p.Date.IsZero() {
		return apperrors.ErrInvalidDate
	}
	if p.Time != nil && strings.TrimSpace(*p.Time) == "" {
		return apperrors.Validation("time cannot be empty")
	}
	if p.Reason != nil && strings.TrimSpace(*p.Reason) == "" {
		return apperrors.Validation("reason cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperrors.ErrInvalidStatus
	}
	return nil
}
