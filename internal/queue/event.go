// Package queue defines the messages exchanged over RabbitMQ and the worker
// that consumes them.
package queue

// BookingConfirmedQueue is the durable queue booking confirmations go to.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking session commits. It
// carries enough for the worker to log and mail a confirmation without
// querying the database.
type BookingConfirmedEvent struct {
	SessionID              uint64  `json:"session_id"`
	PaymentID              uint64  `json:"payment_id"`
	TripID                 uint64  `json:"trip_id"`
	TripName               string  `json:"trip_name"`
	StartDate              string  `json:"start_date"`
	EndDate                string  `json:"end_date"`
	CustomerID             uint64  `json:"customer_id"`
	CustomerName           string  `json:"customer_name"`
	CustomerEmail          string  `json:"customer_email"`
	TransportReference     string  `json:"transport_reference"`
	AccommodationReference string  `json:"accommodation_reference"`
	TransactionID          string  `json:"transaction_id"`
	Amount                 float64 `json:"amount"`
	ConfirmedAt            string  `json:"confirmed_at"`
}
