package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"go-event-ticketing/config"
	"go-event-ticketing/internal/queue"

	"gopkg.in/gomail.v2"
)

// Mailer renders and sends a booking notification email.
type Mailer interface {
	Send(n *queue.BookingNotification) error
}

const confirmedTemplate = `
<h2>Booking confirmed</h2>
<p>Hi {{.AttendeeName}},</p>
<p>Your booking for <strong>{{.EventName}}</strong> is confirmed.</p>
<ul>
  <li>Tickets: {{.Tickets}}</li>
  <li>Total: ${{printf "%.2f" .TotalPrice}}</li>
  <li>Confirmation code: <strong>{{.ConfirmationCode}}</strong></li>
</ul>
<p>Show the confirmation code (or its QR code) at the entrance.</p>
`

const cancelledTemplate = `
<h2>Booking cancelled</h2>
<p>Hi {{.AttendeeName}},</p>
<p>Your booking {{.ConfirmationCode}} for <strong>{{.EventName}}</strong> has been cancelled.</p>
<p>{{.Tickets}} ticket(s) were released back to the event.</p>
`

var templates = map[queue.NotificationType]*template.Template{
	queue.NotificationBookingConfirmed: template.Must(template.New("confirmed").Parse(confirmedTemplate)),
	queue.NotificationBookingCancelled: template.Must(template.New("cancelled").Parse(cancelledTemplate)),
}

var subjects = map[queue.NotificationType]string{
	queue.NotificationBookingConfirmed: "Booking confirmed: %s",
	queue.NotificationBookingCancelled: "Booking cancelled: %s",
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(n *queue.BookingNotification) error {
	tmpl, ok := templates[n.Type]
	if !ok {
		return fmt.Errorf("unknown notification type: %s", n.Type)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, n); err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", n.AttendeeEmail)
	msg.SetHeader("Subject", fmt.Sprintf(subjects[n.Type], n.EventName))
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
