package scope

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medireach/internal/errors"
	"medireach/internal/model"
)

func strPtr(s string) *string { return &s }

func TestFor(t *testing.T) {
	patientID := uuid.New()

	p, err := For(Caller{ID: patientID, Role: model.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, PatientScope{ID: patientID}, p)

	p, err = For(Caller{ID: uuid.New(), Role: model.RoleStaff})
	require.NoError(t, err)
	assert.IsType(t, StaffScope{}, p)

	p, err = For(Caller{ID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.IsType(t, AdminScope{}, p)

	_, err = For(Caller{ID: uuid.New(), Role: "doctor"})
	assert.ErrorIs(t, err, apperrors.ErrRoleForbidden)

	_, err = For(Caller{Role: model.RolePatient})
	assert.ErrorIs(t, err, apperrors.ErrRoleForbidden)
}

func TestFilter(t *testing.T) {
	patientID := uuid.New()

	q := PatientScope{ID: patientID}.Filter()
	require.NotNil(t, q.PatientID)
	assert.Equal(t, patientID, *q.PatientID)

	assert.Equal(t, Query{}, StaffScope{}.Filter())
	assert.Equal(t, Query{}, AdminScope{}.Filter())
}

func TestCanAccess(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	appt := &model.Appointment{ID: uuid.New(), PatientID: owner}

	assert.True(t, PatientScope{ID: owner}.CanAccess(appt))
	assert.False(t, PatientScope{ID: other}.CanAccess(appt))
	assert.True(t, StaffScope{}.CanAccess(appt))
	assert.True(t, AdminScope{}.CanAccess(appt))
	assert.False(t, StaffScope{}.CanAccess(nil))
}

func TestPatientForCreate(t *testing.T) {
	self := uuid.New()
	someoneElse := uuid.New()

	t.Run("patient is forced to self", func(t *testing.T) {
		got, err := PatientScope{ID: self}.PatientForCreate(&someoneElse)
		require.NoError(t, err)
		assert.Equal(t, self, got)

		got, err = PatientScope{ID: self}.PatientForCreate(nil)
		require.NoError(t, err)
		assert.Equal(t, self, got)
	})

	t.Run("staff must name a patient", func(t *testing.T) {
		_, err := StaffScope{}.PatientForCreate(nil)
		assert.ErrorIs(t, err, apperrors.ErrPatientIDRequired)

		nilID := uuid.Nil
		_, err = AdminScope{}.PatientForCreate(&nilID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		got, err := StaffScope{}.PatientForCreate(&someoneElse)
		require.NoError(t, err)
		assert.Equal(t, someoneElse, got)
	})
}

func TestRestrictPatch(t *testing.T) {
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cancelled := model.StatusCancelled
	cardiology := model.Department("Cardiology")
	newPatient := uuid.New()

	submitted := model.AppointmentPatch{
		Patient:    &newPatient,
		Doctor:     strPtr("Dr. House"),
		Department: &cardiology,
		Date:       &date,
		Time:       strPtr("10:30"),
		Reason:     strPtr("follow-up"),
		Notes:      strPtr("bring results"),
		Status:     &cancelled,
	}

	t.Run("patient keeps date time reason notes", func(t *testing.T) {
		got := PatientScope{ID: uuid.New()}.RestrictPatch(submitted)
		assert.Equal(t, &date, got.Date)
		assert.Equal(t, submitted.Time, got.Time)
		assert.Equal(t, submitted.Reason, got.Reason)
		assert.Equal(t, submitted.Notes, got.Notes)
		assert.Nil(t, got.Status)
		assert.Nil(t, got.Doctor)
		assert.Nil(t, got.Department)
		assert.Nil(t, got.Patient)
	})

	t.Run("staff keeps everything but patient", func(t *testing.T) {
		got := StaffScope{}.RestrictPatch(submitted)
		assert.Nil(t, got.Patient)
		assert.Equal(t, &cancelled, got.Status)
		assert.Equal(t, &cardiology, got.Department)
		assert.Equal(t, submitted.Doctor, got.Doctor)
		assert.Equal(t, &date, got.Date)
	})

	t.Run("admin matches staff", func(t *testing.T) {
		assert.Equal(t, StaffScope{}.RestrictPatch(submitted), AdminScope{}.RestrictPatch(submitted))
	})

	t.Run("patient cancel plus date applies date only", func(t *testing.T) {
		got := PatientScope{ID: uuid.New()}.RestrictPatch(model.AppointmentPatch{Status: &cancelled, Date: &date})
		cols := got.Columns()
		assert.Equal(t, map[string]interface{}{"date": date}, cols)
	})
}

func TestCanViewStats(t *testing.T) {
	assert.False(t, PatientScope{ID: uuid.New()}.CanViewStats())
	assert.True(t, StaffScope{}.CanViewStats())
	assert.True(t, AdminScope{}.CanViewStats())
}
