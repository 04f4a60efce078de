package notify

import (
	"context"

	"github.com/rs/zerolog"

	"medireach/internal/model"
)

// LogNotifier writes messages to the log instead of delivering them. It is
// the fallback when no transport is configured.
type LogNotifier struct {
	base
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	n := &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
	n.base = base{s: n, channel: "log"}
	return n
}

func (n *LogNotifier) send(_ context.Context, kind Kind, a *model.Appointment, to model.Contact) error {
	n.logger.Info().
		Str("kind", string(kind)).
		Str("appointment_id", a.ID.String()).
		Str("patient_id", to.ID.String()).
		Str("email", to.Email).
		Time("date", a.Date).
		Str("time", a.Time).
		Msg("notification")
	return nil
}
