// Package service holds the booking flow that spans several repositories
// and the publisher that announces its outcome.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/gateway"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/model"
	"github.com/travelco/travel-planner/internal/queue"
)

type TripReader interface {
	GetByID(ctx context.Context, id uint64) (model.Trip, error)
}

type TransportReader interface {
	GetByID(ctx context.Context, id uint64) (model.TransportBooking, error)
}

type AccommodationReader interface {
	GetByID(ctx context.Context, id uint64) (model.AccommodationBooking, error)
}

// SessionStore persists booking sessions. Finalize and Abandon are atomic.
type SessionStore interface {
	Create(ctx context.Context, s *model.BookingSession) error
	GetByID(ctx context.Context, id uint64) (model.BookingSession, error)
	Update(ctx context.Context, s *model.BookingSession) error
	Finalize(ctx context.Context, s *model.BookingSession, p *model.Payment) error
	Abandon(ctx context.Context, s *model.BookingSession) error
}

// Publisher announces confirmed bookings.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// ConfirmRequest is the payment part of a confirmation. Gateway and
// transaction id fall back to the configured gateway.
type ConfirmRequest struct {
	PaymentMethod  string  `json:"paymentMethod" validate:"required,oneof='Credit Card' 'Debit Card' 'Net Banking' UPI Wallet"`
	PaymentGateway string  `json:"paymentGateway" validate:"omitempty,oneof=Stripe Razorpay PayPal Manual"`
	TransactionID  *string `json:"transactionId"`
}

// Review is what POST /review returns.
type Review struct {
	Session model.BookingSession `json:"session"`
	Summary model.Summary        `json:"summary"`
}

// Confirmation is what POST /confirm returns.
type Confirmation struct {
	Session model.BookingSession `json:"session"`
	Payment model.Payment        `json:"payment"`
}

// BookingService drives a customer's booking session from trip selection
// to a confirmed, paid trip.
type BookingService struct {
	Trips      TripReader
	Transports TransportReader
	Stays      AccommodationReader
	Sessions   SessionStore
	Gateway    gateway.Gateway
	Publisher  Publisher // nil disables events
	Currency   string

	// PublishTimeout bounds the post-commit publish.
	PublishTimeout time.Duration
}

func NewBookingService(trips TripReader, transports TransportReader, stays AccommodationReader,
	sessions SessionStore, gw gateway.Gateway, pub Publisher) *BookingService {
	return &BookingService{
		Trips:          trips,
		Transports:     transports,
		Stays:          stays,
		Sessions:       sessions,
		Gateway:        gw,
		Publisher:      pub,
		Currency:       "INR",
		PublishTimeout: 5 * time.Second,
	}
}

func forbidden() error {
	return domain.ForbiddenError{Msg: "You do not have access to this booking session"}
}

// Start opens a session for a trip the customer owns and is still planning.
func (s *BookingService) Start(ctx context.Context, customerID, tripID uint64) (model.BookingSession, error) {
	if tripID == 0 {
		return model.BookingSession{}, domain.Invalid("tripId", "is required")
	}
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return model.BookingSession{}, err
	}
	if trip.CustomerID != customerID {
		return model.BookingSession{}, domain.ForbiddenError{Msg: "You do not have access to this trip"}
	}
	if trip.Status != model.TripPlanning {
		return model.BookingSession{}, domain.Invalid("tripId", fmt.Sprintf("trip must be in Planning (is %s)", trip.Status))
	}
	sess := model.BookingSession{
		TripID:     trip.ID,
		CustomerID: customerID,
		State:      model.StateSelectingTransport,
	}
	if err := s.Sessions.Create(ctx, &sess); err != nil {
		return model.BookingSession{}, err
	}
	logger.InfoLogger.WithFields(logrus.Fields{"session_id": sess.ID, "trip_id": trip.ID}).Info("booking session started")
	return sess, nil
}

// Get returns a session owned by the customer.
func (s *BookingService) Get(ctx context.Context, customerID, id uint64) (model.BookingSession, error) {
	sess, err := s.Sessions.GetByID(ctx, id)
	if err != nil {
		return sess, err
	}
	if sess.CustomerID != customerID {
		return model.BookingSession{}, forbidden()
	}
	return sess, nil
}

// ChooseTransport attaches a transport booking of the session's trip.
func (s *BookingService) ChooseTransport(ctx context.Context, customerID, id, bookingID uint64) (model.BookingSession, error) {
	sess, err := s.Get(ctx, customerID, id)
	if err != nil {
		return sess, err
	}
	b, err := s.Transports.GetByID(ctx, bookingID)
	if err != nil {
		return sess, err
	}
	if err := checkChoice("transportBookingId", sess, b.TripID, b.BookingStatus); err != nil {
		return sess, err
	}
	if err := sess.ChooseTransport(b.ID); err != nil {
		return sess, err
	}
	return sess, s.Sessions.Update(ctx, &sess)
}

// ChooseAccommodation attaches an accommodation booking of the session's trip.
func (s *BookingService) ChooseAccommodation(ctx context.Context, customerID, id, bookingID uint64) (model.BookingSession, error) {
	sess, err := s.Get(ctx, customerID, id)
	if err != nil {
		return sess, err
	}
	b, err := s.Stays.GetByID(ctx, bookingID)
	if err != nil {
		return sess, err
	}
	if err := checkChoice("accommodationBookingId", sess, b.TripID, b.BookingStatus); err != nil {
		return sess, err
	}
	if err := sess.ChooseAccommodation(b.ID); err != nil {
		return sess, err
	}
	return sess, s.Sessions.Update(ctx, &sess)
}

func checkChoice(field string, sess model.BookingSession, tripID uint64, status model.BookingStatus) error {
	if tripID != sess.TripID {
		return domain.Invalid(field, "must belong to the session's trip")
	}
	if status == model.BookingCancelled {
		return domain.Invalid(field, "is cancelled")
	}
	return nil
}

// summary prices the session's current choices after checking they still
// stand.
func (s *BookingService) summary(ctx context.Context, sess model.BookingSession) (model.Summary, model.TransportBooking, model.AccommodationBooking, error) {
	var (
		transport model.TransportBooking
		stay      model.AccommodationBooking
		err       error
	)
	if sess.TransportBookingID == nil || sess.AccommodationBookingID == nil {
		return model.Summary{}, transport, stay, domain.Invalid("state", "transport and accommodation must be selected")
	}
	if transport, err = s.Transports.GetByID(ctx, *sess.TransportBookingID); err != nil {
		return model.Summary{}, transport, stay, err
	}
	if stay, err = s.Stays.GetByID(ctx, *sess.AccommodationBookingID); err != nil {
		return model.Summary{}, transport, stay, err
	}
	if err := s.checkCurrent(ctx, sess, transport, stay); err != nil {
		return model.Summary{}, transport, stay, err
	}
	return model.NewSummary(&transport, &stay), transport, stay, nil
}

// checkCurrent rejects choices that went stale after they were made: the
// trip left Planning or a chosen booking was cancelled. Finalize repeats
// the check under row locks.
func (s *BookingService) checkCurrent(ctx context.Context, sess model.BookingSession,
	transport model.TransportBooking, stay model.AccommodationBooking) error {
	trip, err := s.Trips.GetByID(ctx, sess.TripID)
	if err != nil {
		return err
	}
	if trip.Status != model.TripPlanning {
		return domain.Invalid("tripId", fmt.Sprintf("trip must be in Planning (is %s)", trip.Status))
	}
	if err := checkChoice("transportBookingId", sess, transport.TripID, transport.BookingStatus); err != nil {
		return err
	}
	return checkChoice("accommodationBookingId", sess, stay.TripID, stay.BookingStatus)
}

// Review prices the choices and moves the session into Paying.
func (s *BookingService) Review(ctx context.Context, customerID, id uint64) (Review, error) {
	sess, err := s.Get(ctx, customerID, id)
	if err != nil {
		return Review{}, err
	}
	if err := sess.StartPayment(); err != nil {
		return Review{}, err
	}
	sum, _, _, err := s.summary(ctx, sess)
	if err != nil {
		return Review{}, err
	}
	if err := s.Sessions.Update(ctx, &sess); err != nil {
		return Review{}, err
	}
	return Review{Session: sess, Summary: sum}, nil
}

// Confirm records a successful payment for the reviewed amount and commits
// the whole booking atomically. The booking.confirmed event is published
// after the commit; a publish failure is only logged.
func (s *BookingService) Confirm(ctx context.Context, customerID, id uint64, req ConfirmRequest) (Confirmation, error) {
	sess, err := s.Get(ctx, customerID, id)
	if err != nil {
		return Confirmation{}, err
	}
	if sess.State != model.StatePaying {
		return Confirmation{}, domain.Invalid("state", fmt.Sprintf("cannot confirm while session is %s", sess.State))
	}
	sum, transport, stay, err := s.summary(ctx, sess)
	if err != nil {
		return Confirmation{}, err
	}

	gwName := req.PaymentGateway
	if gwName == "" {
		gwName = s.Gateway.Name()
	}
	var txID string
	if req.TransactionID != nil {
		txID = *req.TransactionID
	}
	if txID == "" {
		if txID, err = s.Gateway.CreateOrder(ctx, sum.Amount, s.Currency, fmt.Sprintf("session-%d", sess.ID)); err != nil {
			return Confirmation{}, domain.InternalError{Msg: "payment gateway", Err: err}
		}
	}

	p := model.NewPayment()
	p.TripID, p.CustomerID = sess.TripID, sess.CustomerID
	p.Amount = sum.Amount
	p.Breakdown = sum.Breakdown()
	p.PaymentMethod = req.PaymentMethod
	p.PaymentGateway = gwName
	p.TransactionID = &txID
	p.Status = model.PaymentSuccess
	if err := p.Validate(); err != nil {
		return Confirmation{}, err
	}
	if err := s.Sessions.Finalize(ctx, &sess, &p); err != nil {
		return Confirmation{}, err
	}
	logger.InfoLogger.WithFields(logrus.Fields{
		"session_id": sess.ID, "payment_id": p.ID, "trip_id": sess.TripID, "amount": p.Amount,
	}).Info("booking session confirmed")

	s.publish(sess, p, transport, stay)
	return Confirmation{Session: sess, Payment: p}, nil
}

func (s *BookingService) publish(sess model.BookingSession, p model.Payment, transport model.TransportBooking, stay model.AccommodationBooking) {
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.PublishTimeout)
	defer cancel()

	ev := queue.BookingConfirmedEvent{
		SessionID:              sess.ID,
		PaymentID:              p.ID,
		TripID:                 sess.TripID,
		CustomerID:             sess.CustomerID,
		TransportReference:     transport.BookingReference,
		AccommodationReference: stay.BookingReference,
		Amount:                 p.Amount,
		ConfirmedAt:            time.Now().UTC().Format(time.RFC3339),
	}
	if p.TransactionID != nil {
		ev.TransactionID = *p.TransactionID
	}
	if trip, err := s.Trips.GetByID(ctx, sess.TripID); err == nil {
		ev.TripName, ev.StartDate, ev.EndDate = trip.TripName, trip.StartDate.String(), trip.EndDate.String()
		if trip.Customer != nil {
			ev.CustomerName, ev.CustomerEmail = trip.Customer.Name, trip.Customer.Email
		}
	}
	if err := s.Publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		logger.ErrorLogger.WithError(err).WithField("session_id", sess.ID).Warn("booking.confirmed not published")
	}
}

// Abandon ends an unconfirmed session and cancels its pending bookings.
func (s *BookingService) Abandon(ctx context.Context, customerID, id uint64) (model.BookingSession, error) {
	sess, err := s.Get(ctx, customerID, id)
	if err != nil {
		return sess, err
	}
	if sess.State.IsTerminal() {
		return sess, domain.Invalid("state", fmt.Sprintf("cannot abandon while session is %s", sess.State))
	}
	if err := s.Sessions.Abandon(ctx, &sess); err != nil {
		return sess, err
	}
	return sess, nil
}
