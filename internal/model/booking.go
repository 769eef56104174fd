package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelco/travel-planner/internal/domain"
)

// BookingStatus is shared by transport and accommodation bookings.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// TransportBooking is a transport option reserved for a trip.
type TransportBooking struct {
	ID               uint64        `json:"id"`
	TripID           uint64        `json:"tripId" validate:"required"`
	CustomerID       uint64        `json:"customerId" validate:"required"`
	Trip             *TripRef      `json:"trip,omitempty"`
	Customer         *CustomerRef  `json:"customer,omitempty"`
	TransportType    string        `json:"transportType" validate:"required,oneof=Bus Train Flight Car Bike"`
	TransportName    string        `json:"transportName" validate:"required"`
	Vendor           string        `json:"vendor"`
	FromLocation     string        `json:"fromLocation"`
	ToLocation       string        `json:"toLocation"`
	DepartureTime    *time.Time    `json:"departureTime,omitempty"`
	ArrivalTime      *time.Time    `json:"arrivalTime,omitempty"`
	Duration         string        `json:"duration"`
	Seats            int           `json:"seats" validate:"min=0"`
	Price            float64       `json:"price" validate:"gte=0"`
	SafetyScore      float64       `json:"safetyScore" validate:"gte=0,lte=5"`
	Amenities        StringList    `json:"amenities"`
	BookingStatus    BookingStatus `json:"bookingStatus"`
	BookingReference string        `json:"bookingReference"`
	Notes            string        `json:"notes"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// NewTransportBooking returns a booking carrying the schema defaults.
func NewTransportBooking() TransportBooking {
	return TransportBooking{
		SafetyScore:   4,
		Amenities:     StringList{},
		BookingStatus: BookingPending,
	}
}

// Validate fills the booking reference and checks cross-field rules.
func (b *TransportBooking) Validate() error {
	b.TransportName = strings.TrimSpace(b.TransportName)
	if !b.BookingStatus.IsValid() {
		return domain.Invalid("bookingStatus", "must be one of Pending, Confirmed, Cancelled")
	}
	if b.DepartureTime != nil && b.ArrivalTime != nil && b.ArrivalTime.Before(*b.DepartureTime) {
		return domain.Invalid("arrivalTime", "must not be before departureTime")
	}
	if strings.TrimSpace(b.BookingReference) == "" {
		b.BookingReference = NewBookingReference("TB")
	}
	return nil
}

// AccommodationBooking is a hotel stay reserved for a trip.
type AccommodationBooking struct {
	ID               uint64        `json:"id"`
	TripID           uint64        `json:"tripId" validate:"required"`
	CustomerID       uint64        `json:"customerId" validate:"required"`
	Trip             *TripRef      `json:"trip,omitempty"`
	Customer         *CustomerRef  `json:"customer,omitempty"`
	HotelName        string        `json:"hotelName" validate:"required"`
	Location         string        `json:"location"`
	RoomType         string        `json:"roomType" validate:"required,oneof=Single Double Twin Suite Deluxe"`
	CheckInDate      Date          `json:"checkInDate" validate:"required"`
	CheckOutDate     Date          `json:"checkOutDate" validate:"required"`
	Nights           int           `json:"nights" validate:"min=0"`
	PricePerNight    float64       `json:"pricePerNight" validate:"gte=0"`
	TotalPrice       float64       `json:"totalPrice" validate:"gte=0"`
	Amenities        StringList    `json:"amenities"`
	StarRating       int           `json:"starRating" validate:"min=1,max=5"`
	BookedRooms      int           `json:"bookedRooms" validate:"min=1"`
	BookingStatus    BookingStatus `json:"bookingStatus"`
	BookingReference string        `json:"bookingReference"`
	SpecialRequests  string        `json:"specialRequests"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// NewAccommodationBooking returns a booking carrying the schema defaults.
func NewAccommodationBooking() AccommodationBooking {
	return AccommodationBooking{
		StarRating:    3,
		BookedRooms:   1,
		Amenities:     StringList{},
		BookingStatus: BookingPending,
	}
}

// Validate derives nights from the dates and the total price from nights,
// rejecting client values for either that disagree.
func (b *AccommodationBooking) Validate() error {
	b.HotelName = strings.TrimSpace(b.HotelName)
	if !b.BookingStatus.IsValid() {
		return domain.Invalid("bookingStatus", "must be one of Pending, Confirmed, Cancelled")
	}
	if !b.CheckOutDate.After(b.CheckInDate.Time) {
		return domain.Invalid("checkOutDate", "must be after checkInDate")
	}
	nights := b.CheckInDate.DaysUntil(b.CheckOutDate)
	if b.Nights != 0 && b.Nights != nights {
		return domain.Invalid("nights", fmt.Sprintf("must equal the nights between checkInDate and checkOutDate (%d)", nights))
	}
	b.Nights = nights
	total := RoundMoney(b.PricePerNight * float64(b.Nights))
	if b.TotalPrice != 0 && !MoneyEqual(b.TotalPrice, total) {
		return domain.Invalid("totalPrice", fmt.Sprintf("must equal pricePerNight × nights (%.2f)", total))
	}
	b.TotalPrice = total
	if strings.TrimSpace(b.BookingReference) == "" {
		b.BookingReference = NewBookingReference("AB")
	}
	return nil
}

// NewBookingReference returns a short, human-readable reference such as
// "TB-3F9A1C2E".
func NewBookingReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id[:8]
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEqual compares two amounts to within half a cent.
func MoneyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 0.005
}
