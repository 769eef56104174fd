package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/travelco/travel-planner/internal/domain"
)

// PaymentStatus is the gateway-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentSuccess  PaymentStatus = "Success"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

var paymentNext = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentSuccess, PaymentFailed},
	PaymentFailed:  {PaymentSuccess},
	PaymentSuccess: {PaymentRefunded},
}

// CanTransitionTo reports whether a payment may move from s to next. A
// captured payment can only be refunded and a refund is final. Repeating
// the current status is allowed so redelivered callbacks are harmless.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, n := range paymentNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

const (
	GatewayStripe   = "Stripe"
	GatewayRazorpay = "Razorpay"
	GatewayPayPal   = "PayPal"
	GatewayManual   = "Manual"
)

// Breakdown splits a payment amount into its components.
type Breakdown struct {
	TransportCost     float64 `json:"transportCost" validate:"gte=0"`
	AccommodationCost float64 `json:"accommodationCost" validate:"gte=0"`
	ActivityCost      float64 `json:"activityCost" validate:"gte=0"`
	Tax               float64 `json:"tax" validate:"gte=0"`
	Discount          float64 `json:"discount" validate:"gte=0"`
}

// Total is transport + accommodation + activity + tax - discount.
func (b Breakdown) Total() float64 {
	return RoundMoney(b.TransportCost + b.AccommodationCost + b.ActivityCost + b.Tax - b.Discount)
}

// IsZero reports whether no component was supplied.
func (b Breakdown) IsZero() bool {
	return b == Breakdown{}
}

// Payment records money paid toward a trip.
type Payment struct {
	ID             uint64        `json:"id"`
	TripID         uint64        `json:"tripId" validate:"required"`
	CustomerID     uint64        `json:"customerId" validate:"required"`
	Trip           *TripRef      `json:"trip,omitempty"`
	Customer       *CustomerRef  `json:"customer,omitempty"`
	Amount         float64       `json:"amount" validate:"gte=0"`
	PaymentMethod  string        `json:"paymentMethod" validate:"required,oneof='Credit Card' 'Debit Card' 'Net Banking' UPI Wallet"`
	TransactionID  *string       `json:"transactionId,omitempty"`
	Status         PaymentStatus `json:"status"`
	PaymentGateway string        `json:"paymentGateway" validate:"oneof=Stripe Razorpay PayPal Manual"`
	Breakdown      Breakdown     `json:"breakdown"`
	PaidAt         *time.Time    `json:"paidAt,omitempty"`
	FailureReason  string        `json:"failureReason,omitempty"`
	InvoiceURL     string        `json:"invoiceUrl,omitempty"`
	ReceiptURL     string        `json:"receiptUrl,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// NewPayment returns a payment carrying the schema defaults.
func NewPayment() Payment {
	return Payment{
		Status:         PaymentPending,
		PaymentGateway: GatewayRazorpay,
	}
}

// Validate checks the status, normalizes the transaction id and enforces
// that a supplied breakdown adds up to the amount.
func (p *Payment) Validate() error {
	if !p.Status.IsValid() {
		return domain.Invalid("status", "must be one of Pending, Success, Failed, Refunded")
	}
	if p.TransactionID != nil {
		tx := strings.TrimSpace(*p.TransactionID)
		if tx == "" {
			p.TransactionID = nil
		} else {
			p.TransactionID = &tx
		}
	}
	if !p.Breakdown.IsZero() {
		if want := p.Breakdown.Total(); !MoneyEqual(p.Amount, want) {
			return domain.Invalid("amount", fmt.Sprintf("must equal the breakdown total (%.2f)", want))
		}
	}
	return nil
}

// StampPaidAt records the payment time the first time the status is Success.
func (p *Payment) StampPaidAt(now time.Time) {
	if p.Status == PaymentSuccess && p.PaidAt == nil {
		t := now.UTC()
		p.PaidAt = &t
	}
}

// ReceiptPath is the API path serving the PDF receipt of a payment.
func ReceiptPath(paymentID uint64) string {
	return fmt.Sprintf("/api/payments/%d/receipt", paymentID)
}
