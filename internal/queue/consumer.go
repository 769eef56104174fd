package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/travelco/travel-planner/internal/logger"
)

// Notifier tells the customer about a confirmed booking.
type Notifier interface {
	NotifyBookingConfirmed(ev BookingConfirmedEvent) error
}

// Consumer listens to booking.confirmed and appends one line per booking to
// <LogDir>/booking.log. When a Notifier is set, a confirmation is mailed as
// well; mail failures are logged and do not reject the message.
type Consumer struct {
	URL      string
	LogDir   string
	Notifier Notifier
}

func NewConsumer(url, logDir string, n Notifier) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{URL: url, LogDir: logDir, Notifier: n}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff when the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logger.ErrorLogger.WithError(err).Warnf("booking-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.ErrorLogger.WithError(err).Warn("booking-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.ErrorLogger.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logger.InfoLogger.WithField("queue", BookingConfirmedQueue).Info("booking-consumer: listening")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				logger.ErrorLogger.WithError(err).Error("booking-consumer: handle message failed")
				_ = d.Nack(false, false) // no requeue, a bad payload would loop forever
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.SessionID == 0 || ev.TripID == 0 {
		return errors.New("event without session or trip id")
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if c.Notifier != nil && ev.CustomerEmail != "" {
		if err := c.Notifier.NotifyBookingConfirmed(ev); err != nil {
			logger.ErrorLogger.WithError(err).WithFields(logrus.Fields{
				"session_id": ev.SessionID, "email": ev.CustomerEmail,
			}).Warn("booking-consumer: confirmation mail not sent")
		}
	}
	return nil
}

func (c *Consumer) appendLog(ev BookingConfirmedEvent) error {
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one booking.log line.
func FormatLine(ev BookingConfirmedEvent) string {
	return fmt.Sprintf("[%s] Booking confirmed | session_id=%d | payment_id=%d | trip_id=%d | trip=%q | dates=%s..%s | customer_id=%d | transport=%s | accommodation=%s | transaction=%s | amount=%.2f\n",
		ev.ConfirmedAt, ev.SessionID, ev.PaymentID, ev.TripID, ev.TripName, ev.StartDate, ev.EndDate,
		ev.CustomerID, ev.TransportReference, ev.AccommodationReference, ev.TransactionID, ev.Amount)
}
