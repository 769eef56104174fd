package model

import (
	"fmt"
	"time"

	"github.com/travelco/travel-planner/internal/domain"
)

// SessionState is a step of the booking flow.
type SessionState string

const (
	StatePlanningTrip           SessionState = "PlanningTrip"
	StateSelectingTransport     SessionState = "SelectingTransport"
	StateSelectingAccommodation SessionState = "SelectingAccommodation"
	StateReviewingSummary       SessionState = "ReviewingSummary"
	StatePaying                 SessionState = "Paying"
	StateConfirmed              SessionState = "Confirmed"
	StateAbandoned              SessionState = "Abandoned"
)

// IsTerminal reports whether no further step is possible.
func (s SessionState) IsTerminal() bool {
	return s == StateConfirmed || s == StateAbandoned
}

// BookingSession tracks a customer walking through plan → transport →
// accommodation → review → payment for one trip.
type BookingSession struct {
	ID                     uint64       `json:"id"`
	TripID                 uint64       `json:"tripId"`
	CustomerID             uint64       `json:"customerId"`
	State                  SessionState `json:"state"`
	TransportBookingID     *uint64      `json:"transportBookingId,omitempty"`
	AccommodationBookingID *uint64      `json:"accommodationBookingId,omitempty"`
	PaymentID              *uint64      `json:"paymentId,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
}

func (s *BookingSession) stateError(action string) error {
	return domain.Invalid("state", fmt.Sprintf("cannot %s while session is %s", action, s.State))
}

// ChooseTransport records the transport booking and advances the flow.
// Re-choosing is allowed until payment starts.
func (s *BookingSession) ChooseTransport(bookingID uint64) error {
	switch s.State {
	case StateSelectingTransport, StateSelectingAccommodation, StateReviewingSummary:
	default:
		return s.stateError("select transport")
	}
	s.TransportBookingID = &bookingID
	if s.AccommodationBookingID != nil {
		s.State = StateReviewingSummary
	} else {
		s.State = StateSelectingAccommodation
	}
	return nil
}

// ChooseAccommodation records the accommodation booking. A transport choice
// must already exist.
func (s *BookingSession) ChooseAccommodation(bookingID uint64) error {
	switch s.State {
	case StateSelectingAccommodation, StateReviewingSummary:
	default:
		return s.stateError("select accommodation")
	}
	if s.TransportBookingID == nil {
		return domain.Invalid("transportBookingId", "select transport first")
	}
	s.AccommodationBookingID = &bookingID
	s.State = StateReviewingSummary
	return nil
}

// StartPayment moves a reviewed session into Paying.
func (s *BookingSession) StartPayment() error {
	if s.State != StateReviewingSummary && s.State != StatePaying {
		return s.stateError("review")
	}
	s.State = StatePaying
	return nil
}

// Confirm finalizes a session in Paying with the created payment.
func (s *BookingSession) Confirm(paymentID uint64) error {
	if s.State != StatePaying {
		return s.stateError("confirm")
	}
	s.PaymentID = &paymentID
	s.State = StateConfirmed
	return nil
}

// ReleaseTransport forgets a transport booking that was deleted. An open
// session goes back to choosing transport.
func (s *BookingSession) ReleaseTransport() {
	s.TransportBookingID = nil
	if !s.State.IsTerminal() {
		s.State = StateSelectingTransport
	}
}

// ReleaseAccommodation forgets a deleted accommodation booking. An open
// session that still has its transport goes back to choosing accommodation.
func (s *BookingSession) ReleaseAccommodation() {
	s.AccommodationBookingID = nil
	if !s.State.IsTerminal() && s.State != StateSelectingTransport {
		s.State = StateSelectingAccommodation
	}
}

// Abandon ends a session that has not been confirmed.
func (s *BookingSession) Abandon() error {
	if s.State.IsTerminal() {
		return s.stateError("abandon")
	}
	s.State = StateAbandoned
	return nil
}

// Summary is the price review shown before payment.
type Summary struct {
	TransportCost     float64 `json:"transportCost"`
	AccommodationCost float64 `json:"accommodationCost"`
	ActivityCost      float64 `json:"activityCost"`
	Tax               float64 `json:"tax"`
	Discount          float64 `json:"discount"`
	Amount            float64 `json:"amount"`
}

// NewSummary prices a transport and accommodation pair. Tax and activities
// are not charged yet.
func NewSummary(transport *TransportBooking, stay *AccommodationBooking) Summary {
	var s Summary
	if transport != nil {
		s.TransportCost = RoundMoney(transport.Price)
	}
	if stay != nil {
		s.AccommodationCost = RoundMoney(stay.TotalPrice)
	}
	s.Amount = s.Breakdown().Total()
	return s
}

func (s Summary) Breakdown() Breakdown {
	return Breakdown{
		TransportCost:     s.TransportCost,
		AccommodationCost: s.AccommodationCost,
		ActivityCost:      s.ActivityCost,
		Tax:               s.Tax,
		Discount:          s.Discount,
	}
}
