package queue

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/logger"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.CustomerName}},</p>
<p>Your trip <strong>{{.TripName}}</strong> ({{.StartDate}} to {{.EndDate}}) is booked.</p>
<ul>
<li>Transport: {{.TransportReference}}</li>
<li>Accommodation: {{.AccommodationReference}}</li>
<li>Transaction: {{.TransactionID}}</li>
<li>Amount paid: Rs. {{printf "%.2f" .Amount}}</li>
</ul>
<p>Travel Co</p>`))

// MailNotifier sends booking confirmations over SMTP.
type MailNotifier struct {
	Cfg  config.SMTPConfig
	Send func(m *gomail.Message) error
}

func NewMailNotifier(cfg config.SMTPConfig) *MailNotifier {
	n := &MailNotifier{Cfg: cfg}
	n.Send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
		return d.DialAndSend(m)
	}
	return n
}

func renderConfirmation(ev BookingConfirmedEvent) (string, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, ev); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return body.String(), nil
}

// Message builds the confirmation mail for ev.
func (n *MailNotifier) Message(ev BookingConfirmedEvent) (*gomail.Message, error) {
	body, err := renderConfirmation(ev)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.Cfg.From)
	m.SetHeader("To", ev.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("Booking confirmed: %s", ev.TripName))
	m.SetBody("text/html", body)
	return m, nil
}

func (n *MailNotifier) NotifyBookingConfirmed(ev BookingConfirmedEvent) error {
	m, err := n.Message(ev)
	if err != nil {
		return err
	}
	if err := n.Send(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	logger.InfoLogger.WithField("email", ev.CustomerEmail).Info("booking confirmation mailed")
	return nil
}
