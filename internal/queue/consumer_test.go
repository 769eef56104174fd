package queue

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/travelco/travel-planner/internal/config"
)

type recordingNotifier struct {
	got []BookingConfirmedEvent
	err error
}

func (r *recordingNotifier) NotifyBookingConfirmed(ev BookingConfirmedEvent) error {
	r.got = append(r.got, ev)
	return r.err
}

func sampleEvent() BookingConfirmedEvent {
	return BookingConfirmedEvent{
		SessionID: 3, PaymentID: 9, TripID: 4, TripName: "Goa Getaway",
		StartDate: "2025-01-01", EndDate: "2025-01-05",
		CustomerID: 2, CustomerName: "Jane", CustomerEmail: "jane@x.com",
		TransportReference: "TB-1", AccommodationReference: "AB-1",
		TransactionID: "order_1", Amount: 3501.5, ConfirmedAt: "2025-01-01T10:00:00Z",
	}
}

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := t.TempDir()
	n := &recordingNotifier{err: errors.New("smtp down")}
	c := NewConsumer("", dir, n)

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))
	require.NoError(t, c.handleMessage(body))

	raw, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "session_id=3")
	assert.Contains(t, lines[0], `trip="Goa Getaway"`)
	assert.Contains(t, lines[0], "amount=3501.50")
	assert.Len(t, n.got, 2, "mail failures do not reject the message")
}

func TestHandleMessageRejectsBadPayload(t *testing.T) {
	c := NewConsumer("", t.TempDir(), nil)
	assert.Error(t, c.handleMessage([]byte("{")))
	assert.Error(t, c.handleMessage([]byte(`{"trip_id":1}`)))
}

func TestMailNotifier(t *testing.T) {
	var sent *gomail.Message
	n := NewMailNotifier(config.SMTPConfig{Host: "smtp.local", Port: 587, From: "no-reply@travelco.local"})
	n.Send = func(m *gomail.Message) error { sent = m; return nil }

	require.NoError(t, n.NotifyBookingConfirmed(sampleEvent()))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"jane@x.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Booking confirmed: Goa Getaway"}, sent.GetHeader("Subject"))

	body, err := renderConfirmation(sampleEvent())
	require.NoError(t, err)
	assert.Contains(t, body, "Rs. 3501.50")
	assert.Contains(t, body, "TB-1")
}
