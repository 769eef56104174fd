package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/travelco/travel-planner/internal/domain"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanning   TripStatus = "Planning"
	TripBooked     TripStatus = "Booked"
	TripInProgress TripStatus = "In Progress"
	TripCompleted  TripStatus = "Completed"
	TripCancelled  TripStatus = "Cancelled"
)

var tripNext = map[TripStatus][]TripStatus{
	TripPlanning:   {TripBooked, TripCancelled},
	TripBooked:     {TripInProgress, TripCancelled},
	TripInProgress: {TripCompleted, TripCancelled},
}

func (s TripStatus) IsValid() bool {
	switch s {
	case TripPlanning, TripBooked, TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a trip may move from s to next. Staying in
// the same state is always allowed.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	if s == next {
		return true
	}
	for _, n := range tripNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// TripPaymentStatus tracks whether a trip has been paid for.
type TripPaymentStatus string

const (
	TripPaymentPending   TripPaymentStatus = "Pending"
	TripPaymentPaid      TripPaymentStatus = "Paid"
	TripPaymentCancelled TripPaymentStatus = "Cancelled"
)

func (s TripPaymentStatus) IsValid() bool {
	switch s {
	case TripPaymentPending, TripPaymentPaid, TripPaymentCancelled:
		return true
	}
	return false
}

func (s TripPaymentStatus) CanTransitionTo(next TripPaymentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case TripPaymentPending:
		return next == TripPaymentPaid || next == TripPaymentCancelled
	case TripPaymentPaid:
		return next == TripPaymentCancelled
	}
	return false
}

// Trip is a planned journey owned by a customer.
type Trip struct {
	ID                   uint64            `json:"id"`
	CustomerID           uint64            `json:"customerId" validate:"required"`
	Customer             *CustomerRef      `json:"customer,omitempty"`
	TripName             string            `json:"tripName" validate:"required,max=100"`
	StartState           string            `json:"startState" validate:"required"`
	DestinationDistrict  string            `json:"destinationDistrict" validate:"required"`
	StartDate            Date              `json:"startDate" validate:"required"`
	EndDate              Date              `json:"endDate" validate:"required"`
	MaxDailyHours        int               `json:"maxDailyHours" validate:"min=1,max=24"`
	RestFrequency        int               `json:"restFrequency" validate:"min=0"`
	NumberOfTravelers    int               `json:"numberOfTravelers" validate:"min=1"`
	WheelchairAccessible bool              `json:"wheelchairAccessible"`
	NearbyHospitals      bool              `json:"nearbyHospitals"`
	NearbyPharmacies     bool              `json:"nearbyPharmacies"`
	TotalBudget          float64           `json:"totalBudget" validate:"min=0"`
	Status               TripStatus        `json:"status"`
	PaymentStatus        TripPaymentStatus `json:"paymentStatus"`
	Description          string            `json:"description"`
	Itinerary            Itinerary         `json:"itinerary" validate:"dive"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// NewTrip returns a trip carrying the schema defaults. Request bodies are
// decoded on top of it so omitted fields keep their default.
func NewTrip() Trip {
	return Trip{
		MaxDailyHours:     8,
		RestFrequency:     2,
		NumberOfTravelers: 1,
		Status:            TripPlanning,
		PaymentStatus:     TripPaymentPending,
		Itinerary:         Itinerary{},
	}
}

// Validate checks the rules the struct tags cannot express.
func (t *Trip) Validate() error {
	t.TripName = strings.TrimSpace(t.TripName)
	if !t.Status.IsValid() {
		return domain.Invalid("status", fmt.Sprintf("must be one of Planning, Booked, In Progress, Completed, Cancelled (got %q)", t.Status))
	}
	if !t.PaymentStatus.IsValid() {
		return domain.Invalid("paymentStatus", fmt.Sprintf("must be one of Pending, Paid, Cancelled (got %q)", t.PaymentStatus))
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate.Time) {
		return domain.Invalid("endDate", "must not be before startDate")
	}
	return nil
}

// Ref returns the {id,tripName} projection used on bookings and payments.
func (t Trip) Ref() *TripRef {
	return &TripRef{ID: t.ID, TripName: t.TripName}
}

// TripRef is the reduced trip projection.
type TripRef struct {
	ID       uint64 `json:"id"`
	TripName string `json:"tripName"`
}

// ItineraryDay is one day of a trip's plan.
type ItineraryDay struct {
	Day        int      `json:"day" validate:"min=1"`
	Location   string   `json:"location"`
	Activities []string `json:"activities"`
	Notes      string   `json:"notes,omitempty"`
}

// Itinerary is stored as a JSON column.
type Itinerary []ItineraryDay

func (it *Itinerary) Scan(src any) error { return scanJSON(src, it) }

func (it Itinerary) Value() (driver.Value, error) {
	if it == nil {
		return "[]", nil
	}
	return valueJSON(it)
}
