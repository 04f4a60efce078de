package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"medireach/internal/model"
)

// WebhookConfig configures the outbound webhook.
type WebhookConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	RetryCount int
}

// WebhookPayload is the JSON body posted for every message.
type WebhookPayload struct {
	Event         Kind      `json:"event"`
	AppointmentID string    `json:"appointmentId"`
	PatientID     string    `json:"patientId"`
	PatientName   string    `json:"patientName"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Doctor        string    `json:"doctor"`
	Department    string    `json:"department"`
	Date          time.Time `json:"date"`
	Time          string    `json:"time"`
}

// WebhookNotifier posts appointment events to an HTTP endpoint, for example
// an SMS gateway.
type WebhookNotifier struct {
	base
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	n := &WebhookNotifier{client: client, url: cfg.URL}
	n.base = base{s: n, channel: "webhook"}
	return n
}

func (n *WebhookNotifier) send(ctx context.Context, kind Kind, a *model.Appointment, to model.Contact) error {
	if to.Email == "" && to.Phone == "" {
		return ErrNoContact
	}

	payload := WebhookPayload{
		Event:         kind,
		AppointmentID: a.ID.String(),
		PatientID:     to.ID.String(),
		PatientName:   to.Name,
		Email:         to.Email,
		Phone:         to.Phone,
		Doctor:        a.Doctor,
		Department:    string(a.Department),
		Date:          a.Date,
		Time:          a.Time,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
