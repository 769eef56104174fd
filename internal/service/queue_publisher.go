package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/queue"
)

// QueuePublisher publishes domain events to RabbitMQ. The connection is
// dialed on first use and re-dialed after the broker drops it. Errors are
// logged and returned so callers can choose to ignore them.
type QueuePublisher struct {
	URL string

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewQueuePublisher(url string) *QueuePublisher { return &QueuePublisher{URL: url} }

func (p *QueuePublisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// PublishBookingConfirmed sends the event to the booking.confirmed queue as
// a persistent JSON message.
func (p *QueuePublisher) PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error {
	conn, err := p.connection()
	if err != nil {
		logger.ErrorLogger.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		logger.ErrorLogger.WithError(err).Error("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue.BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		logger.ErrorLogger.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.BookingConfirmedQueue, false, false, pub); err != nil {
		logger.ErrorLogger.WithError(err).Error("rabbitmq: publish failed")
		return err
	}
	logger.InfoLogger.WithField("session_id", event.SessionID).WithField("payment_id", event.PaymentID).
		Info("booking.confirmed published")
	return nil
}

// Close releases the broker connection.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
