package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medireach/internal/model"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("sqlite", "file::memory:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestModels(t *testing.T) {
	models := Models()
	require.Len(t, models, 3)
	assert.IsType(t, &model.User{}, models[0])
	assert.IsType(t, &model.Appointment{}, models[1])
	assert.IsType(t, &model.ReminderLog{}, models[2])
}

func TestGormConfig(t *testing.T) {
	cfg := gormConfig()
	assert.True(t, cfg.DisableForeignKeyConstraintWhenMigrating)
	assert.Equal(t, "UTC", cfg.NowFunc().Location().String())
}
