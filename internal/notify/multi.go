package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"medireach/internal/model"
)

// Multi fans a message out to several notifiers. Delivery counts as done when
// at least one notifier succeeds; the other failures are logged. It fails
// only when every notifier fails.
type Multi struct {
	base
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewMulti combines notifiers. With a single notifier it returns it unchanged.
func NewMulti(logger zerolog.Logger, notifiers ...Notifier) Notifier {
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Channel())
	}
	m := &Multi{notifiers: notifiers, logger: logger}
	m.base = base{s: m, channel: strings.Join(names, "+")}
	return m
}

func (m *Multi) send(ctx context.Context, kind Kind, a *model.Appointment, to model.Contact) error {
	if len(m.notifiers) == 0 {
		return errors.New("no notifiers configured")
	}

	var errs []error
	for _, n := range m.notifiers {
		var err error
		switch kind {
		case KindReminder:
			err = n.SendReminder(ctx, a, to)
		case KindConfirmation:
			err = n.SendConfirmation(ctx, a, to)
		case KindCancellation:
			err = n.SendCancellation(ctx, a, to)
		}
		if err != nil {
			errs = append(errs, err)
			m.logger.Warn().Err(err).
				Str("channel", n.Channel()).
				Str("appointment_id", a.ID.String()).
				Msg("notification channel failed")
		}
	}

	if len(errs) == len(m.notifiers) {
		return errors.Join(errs...)
	}
	return nil
}
