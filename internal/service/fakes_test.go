package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "medireach/internal/errors"
	"medireach/internal/model"
	"medireach/internal/notify"
	"medireach/internal/scope"
)

// memAppointments is an in-memory AppointmentRepository that evaluates
// scope.Query the same way the SQL translation does.
type memAppointments struct {
	mu        sync.Mutex
	items     map[uuid.UUID]model.Appointment
	users     map[uuid.UUID]*model.User
	findErr   error
	markErr   error
	markNoop  bool
	markCalls int
}

func newMemAppointments(users ...*model.User) *memAppointments {
	m := &memAppointments{
		items: make(map[uuid.UUID]model.Appointment),
		users: make(map[uuid.UUID]*model.User),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memAppointments) add(a model.Appointment) model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	m.items[a.ID] = a
	return a
}

func (m *memAppointments) get(id uuid.UUID) model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memAppointments) populate(a *model.Appointment) {
	a.Patient = m.users[a.PatientID]
	a.CreatedBy = m.users[a.CreatedByID]
	if a.UpdatedByID != nil {
		a.UpdatedBy = m.users[*a.UpdatedByID]
	}
}

func (m *memAppointments) Find(_ context.Context, q scope.Query) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []model.Appointment
	for _, a := range m.items {
		if q.Matches(&a) {
			m.populate(&a)
			out = append(out, a)
		}
	}
	scope.SortAppointments(out)
	return out, nil
}

func (m *memAppointments) FindByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.populate(&a)
	return &a, nil
}

func (m *memAppointments) Create(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	m.items[a.ID] = *a
	return nil
}

func (m *memAppointments) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "doctor":
			a.Doctor = v.(string)
		case "department":
			a.Department = v.(model.Department)
		case "date":
			a.Date = v.(time.Time)
		case "time":
			a.Time = v.(string)
		case "reason":
			a.Reason = v.(string)
		case "notes":
			a.Notes = v.(string)
		case "status":
			a.Status = v.(model.AppointmentStatus)
		case "updated_by_id":
			id := v.(uuid.UUID)
			a.UpdatedByID = &id
		case "patient_id":
			a.PatientID = v.(uuid.UUID)
		}
	}
	m.items[id] = a
	return nil
}

func (m *memAppointments) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memAppointments) CountBuckets(_ context.Context, today time.Time) (model.AppointmentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s model.AppointmentStats
	for _, a := range m.items {
		s.Total++
		switch a.Status {
		case model.StatusScheduled:
			s.Scheduled++
		case model.StatusConfirmed:
			s.Confirmed++
		}
		if !a.Date.Before(today) {
			s.Today++
		}
		if a.Date.After(today) && a.Status.Active() {
			s.Upcoming++
		}
	}
	return s, nil
}

func (m *memAppointments) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	if m.markErr != nil {
		return false, m.markErr
	}
	a, ok := m.items[id]
	if !ok || a.ReminderSent || m.markNoop {
		return false, nil
	}
	a.ReminderSent = true
	a.ReminderSentAt = &at
	m.items[id] = a
	return true, nil
}

// memUsers is an in-memory UserDirectory.
type memUsers map[uuid.UUID]*model.User

func (u memUsers) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// memReminderLogs records reminder log batches.
type memReminderLogs struct {
	mu      sync.Mutex
	entries []model.ReminderLog
	err     error
}

func (l *memReminderLogs) Create(_ context.Context, log *model.ReminderLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *log)
	return l.err
}

func (l *memReminderLogs) CreateBatch(_ context.Context, logs []model.ReminderLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logs...)
	return l.err
}

// recordingNotifier counts deliveries per kind and appointment.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    map[notify.Kind][]uuid.UUID
	failFor map[uuid.UUID]error
	block   chan struct{}
	started chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		sent:    make(map[notify.Kind][]uuid.UUID),
		failFor: make(map[uuid.UUID]error),
	}
}

func (r *recordingNotifier) record(kind notify.Kind, a *model.Appointment) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[a.ID]; err != nil {
		return err
	}
	r.sent[kind] = append(r.sent[kind], a.ID)
	return nil
}

func (r *recordingNotifier) count(kind notify.Kind, id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.sent[kind] {
		if got == id {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) total(kind notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent[kind])
}

func (r *recordingNotifier) SendReminder(_ context.Context, a *model.Appointment, _ model.Contact) error {
	return r.record(notify.KindReminder, a)
}

func (r *recordingNotifier) SendConfirmation(_ context.Context, a *model.Appointment, _ model.Contact) error {
	return r.record(notify.KindConfirmation, a)
}

func (r *recordingNotifier) SendCancellation(_ context.Context, a *model.Appointment, _ model.Contact) error {
	return r.record(notify.KindCancellation, a)
}

func (r *recordingNotifier) Channel() string { return "test" }
