package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medireach/internal/calendar"
	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/notify"
	"medireach/internal/repository"
	"medireach/internal/scope"
)

// ErrReminderRunInProgress is returned when a run is already executing in
// this process.
var ErrReminderRunInProgress = fmt.Errorf("reminder run already in progress: %w", apperrors.ErrConflict)

// RunReport summarises one reminder run.
type RunReport struct {
	Window     calendar.Window `json:"window"`
	Candidates int             `json:"candidates"`
	Sent       int             `json:"sent"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// ReminderService dispatches next-day appointment reminders.
type ReminderService interface {
	Run(ctx context.Context) (RunReport, error)
}

type reminderService struct {
	repo     repository.AppointmentRepository
	logs     repository.ReminderLogRepository
	notifier notify.Notifier
	cal      *calendar.Calendar
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewReminderService creates a reminder service.
func NewReminderService(
	repo repository.AppointmentRepository,
	logs repository.ReminderLogRepository,
	notifier notify.Notifier,
	cal *calendar.Calendar,
	logger zerolog.Logger,
) ReminderService {
	return &reminderService{
		repo:     repo,
		logs:     logs,
		notifier: notifier,
		cal:      cal,
		logger:   logger.With().Str("component", "reminders").Logger(),
	}
}

// Run notifies every active, not yet reminded appointment dated tomorrow.
// Each appointment is attempted once; a failure leaves it unmarked for a
// later run and does not stop the others. Only a failed candidate query
// aborts the run.
func (s *reminderService) Run(ctx context.Context) (RunReport, error) {
	if !s.mu.TryLock() {
		return RunReport{}, ErrReminderRunInProgress
	}
	defer s.mu.Unlock()

	runAt := s.cal.Now()
	report := RunReport{Window: s.cal.Tomorrow(), StartedAt: runAt}

	s.logger.Info().
		Time("from", report.Window.From).
		Time("to", report.Window.To).
		Msg("reminder run started")

	candidates, err := s.repo.Find(ctx, scope.ReminderCandidates(report.Window))
	if err != nil {
		s.logger.Error().Err(err).Msg("reminder candidate query failed")
		return report, apperrors.Dependency("find reminder candidates", err)
	}
	report.Candidates = len(candidates)

	entries := make([]model.ReminderLog, 0, len(candidates))
	for i := range candidates {
		entry := s.dispatch(ctx, &candidates[i], runAt, &report)
		entries = append(entries, entry)
	}

	if err := s.logs.CreateBatch(ctx, entries); err != nil {
		s.logger.Error().Err(err).Int("entries", len(entries)).Msg("failed to write reminder log")
	}

	report.FinishedAt = s.cal.Now()
	s.logger.Info().
		Int("candidates", report.Candidates).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("reminder run finished")
	return report, nil
}

// dispatch notifies then marks one appointment, in that order.
func (s *reminderService) dispatch(ctx context.Context, a *model.Appointment, runAt time.Time, report *RunReport) model.ReminderLog {
	log := s.logger.With().Str("appointment_id", a.ID.String()).Logger()
	entry := model.ReminderLog{
		AppointmentID: a.ID,
		Channel:       s.notifier.Channel(),
		AttemptedAt:   runAt,
	}

	fail := func(err error, msg string) model.ReminderLog {
		report.Failed++
		log.Warn().Err(err).Msg(msg)
		entry.Status = model.ReminderStatusFailed
		entry.ErrorMessage = err.Error()
		return entry
	}

	if a.Patient == nil {
		return fail(notify.ErrNoContact, "reminder not sent: patient missing")
	}
	if err := s.notifier.SendReminder(ctx, a, a.Patient.Contact()); err != nil {
		return fail(err, "reminder not sent")
	}

	marked, err := s.repo.MarkReminderSent(ctx, a.ID, runAt)
	if err != nil {
		return fail(fmt.Errorf("mark reminder sent: %w", err), "reminder sent but not recorded")
	}
	entry.Status = model.ReminderStatusSent
	if !marked {
		report.Skipped++
		log.Info().Msg("reminder already recorded by another run")
		return entry
	}

	report.Sent++
	log.Info().Msg("reminder sent")
	return entry
}
