package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"medireach/internal/model"
)

const displayDateLayout = "Monday, January 2, 2006"

var subjects = map[Kind]string{
	KindReminder:     "Appointment Reminder - MediReach",
	KindConfirmation: "Appointment Confirmation - MediReach",
	KindCancellation: "Appointment Cancelled - MediReach",
}

const layout = `{{define "details"}}
<p><strong>Doctor:</strong> {{.Doctor}}</p>
<p><strong>Department:</strong> {{.Department}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
{{end}}
{{define "footer"}}
<hr>
<p style="color:#9ca3af;font-size:12px">This is an automated message from MediReach. Please do not reply to this email.</p>
{{end}}`

var bodies = template.Must(template.New("notify").Parse(layout + `
{{define "reminder"}}<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2>Upcoming Appointment Reminder</h2>
<p>Dear {{.Name}},</p>
<p>This is a friendly reminder about your appointment {{.When}}.</p>
{{template "details" .}}
<ul>
<li>Please arrive 15 minutes early</li>
<li>Bring your ID and insurance card</li>
<li>Bring any relevant medical records</li>
</ul>
<p>If you need to reschedule or cancel, please contact us as soon as possible.</p>
{{template "footer"}}</div>{{end}}
{{define "confirmation"}}<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2>Appointment Confirmed</h2>
<p>Dear {{.Name}},</p>
<p>Your appointment has been successfully scheduled.</p>
{{template "details" .}}
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>Please arrive 15 minutes before your scheduled appointment time.</p>
{{template "footer"}}</div>{{end}}
{{define "cancellation"}}<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2>Appointment Cancelled</h2>
<p>Dear {{.Name}},</p>
<p>Your appointment has been cancelled.</p>
{{template "details" .}}
<p>To book a new appointment, please log in to your MediReach account.</p>
{{template "footer"}}</div>{{end}}
`))

type messageData struct {
	Name       string
	Doctor     string
	Department string
	Date       string
	Time       string
	Reason     string
	When       string
}

// Message is a rendered notification.
type Message struct {
	Kind    Kind
	Subject string
	HTML    string
}

// Render builds the message for kind. now is used for the "tomorrow"/"in N
// days" wording of reminders.
func Render(kind Kind, a *model.Appointment, to model.Contact, now time.Time) (Message, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown message kind %q", kind)
	}

	data := messageData{
		Name:       to.Name,
		Doctor:     a.Doctor,
		Department: string(a.Department),
		Date:       a.Date.Format(displayDateLayout),
		Time:       a.Time,
		Reason:     a.Reason,
		When:       relativeDay(a.Date, now),
	}

	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{Kind: kind, Subject: subject, HTML: buf.String()}, nil
}

func relativeDay(date, now time.Time) string {
	loc := date.Location()
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	days := int(day.Sub(today).Hours()/24 + 0.5)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
