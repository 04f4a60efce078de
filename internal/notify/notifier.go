// Package notify delivers appointment messages to patients.
//
// A Notifier sends one message per call and reports failure through its
// error; it never retries. Callers decide what a failure means: the reminder
// job leaves the appointment unmarked so a later run picks it up again, while
// booking and cancellation messages are best effort.
package notify

import (
	"context"
	"errors"

	"medireach/internal/model"
)

// Kind identifies the message being sent.
type Kind string

const (
	KindReminder     Kind = "reminder"
	KindConfirmation Kind = "confirmation"
	KindCancellation Kind = "cancellation"
)

// ErrNoContact is returned when the patient cannot be reached.
var ErrNoContact = errors.New("patient has no contact address")

// Notifier sends appointment messages.
type Notifier interface {
	SendReminder(ctx context.Context, a *model.Appointment, to model.Contact) error
	SendConfirmation(ctx context.Context, a *model.Appointment, to model.Contact) error
	SendCancellation(ctx context.Context, a *model.Appointment, to model.Contact) error
	// Channel names the delivery channel for reminder logs.
	Channel() string
}

// sender is the single-method core each transport implements; base turns it
// into a full Notifier.
type sender interface {
	send(ctx context.Context, kind Kind, a *model.Appointment, to model.Contact) error
}

type base struct {
	s       sender
	channel string
}

func (b base) SendReminder(ctx context.Context, a *model.Appointment, to model.Contact) error {
	return b.s.send(ctx, KindReminder, a, to)
}

func (b base) SendConfirmation(ctx context.Context, a *model.Appointment, to model.Contact) error {
	return b.s.send(ctx, KindConfirmation, a, to)
}

func (b base) SendCancellation(ctx context.Context, a *model.Appointment, to model.Contact) error {
	return b.s.send(ctx, KindCancellation, a, to)
}

func (b base) Channel() string { return b.channel }
