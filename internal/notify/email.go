package notify

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"medireach/internal/model"
)

// EmailSender delivers one rendered HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, toName, subject, html string) error
}

// SMTPConfig configures the gomail dialer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GomailSender sends email through an SMTP relay.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewGomailSender builds a sender from cfg.
func NewGomailSender(cfg SMTPConfig) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (g *GomailSender) buildMessage(to, toName, subject, html string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return m
}

// SendEmail dials the relay and sends a single message.
func (g *GomailSender) SendEmail(ctx context.Context, to, toName, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.dialer.DialAndSend(g.buildMessage(to, toName, subject, html)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// EmailNotifier renders appointment messages and hands them to an EmailSender.
type EmailNotifier struct {
	base
	sender EmailSender
	now    func() time.Time
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	n := &EmailNotifier{sender: sender, now: time.Now}
	n.base = base{s: n, channel: "email"}
	return n
}

func (n *EmailNotifier) send(ctx context.Context, kind Kind, a *model.Appointment, to model.Contact) error {
	if to.Email == "" {
		return ErrNoContact
	}
	msg, err := Render(kind, a, to, n.now())
	if err != nil {
		return err
	}
	return n.sender.SendEmail(ctx, to.Email, to.Name, msg.Subject, msg.HTML)
}
